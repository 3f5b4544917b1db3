package chore

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

// ChoreStore persists chores. Lookups return nil, nil when the chore does
// not exist.
type ChoreStore interface {
	GetByID(id int64) (*model.Chore, error)
	List() ([]model.Chore, error)
	ListByOwner(ownerID int64) ([]model.Chore, error)
	ListPriority() ([]model.Chore, error)
	Create(c model.Chore) (*model.Chore, error)
	// Mutate loads the chore, passes it to fn and writes the result back in
	// one transaction. An error from fn aborts the write.
	Mutate(id int64, fn func(*model.Chore) error) (*model.Chore, error)
	Delete(id int64) (bool, error)
}

// AssigneeStore persists assignees. Lookups return nil, nil when the
// assignee does not exist.
type AssigneeStore interface {
	GetByID(id int64) (*model.Assignee, error)
	GetByName(name string) (*model.Assignee, error)
	List() ([]model.Assignee, error)
	Create(name string) (*model.Assignee, error)
	Delete(id int64) error
}

// Service applies the scheduling rules to stored chores.
type Service struct {
	chores    ChoreStore
	assignees AssigneeStore
	clock     Clock
	logger    *slog.Logger
}

func NewService(cs ChoreStore, as AssigneeStore, clock Clock, logger *slog.Logger) *Service {
	return &Service{chores: cs, assignees: as, clock: clock, logger: logger}
}

// Today returns the service's current calendar date.
func (s *Service) Today() time.Time {
	return s.clock.Today()
}

func (s *Service) view(c *model.Chore) (*View, error) {
	v, err := Derive(*c, s.clock.Today())
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Get returns one chore with its derived fields.
func (s *Service) Get(id int64) (*View, error) {
	c, err := s.chores.GetByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, choreNotFound(id)
	}
	return s.view(c)
}

// List returns every chore in listing order.
func (s *Service) List() ([]View, error) {
	return s.Search("")
}

// Search returns chores whose title, notes or assignee name contain query,
// in listing order.
func (s *Service) Search(query string) ([]View, error) {
	chores, err := s.chores.List()
	if err != nil {
		return nil, err
	}
	views, err := DeriveAll(chores, s.clock.Today())
	if err != nil {
		return nil, err
	}
	matched := views[:0]
	for _, v := range views {
		if Matches(v, query) {
			matched = append(matched, v)
		}
	}
	SortListing(matched)
	return matched, nil
}

// ListForAssignee returns the named assignee and their chores by due date.
func (s *Service) ListForAssignee(name string) (*model.Assignee, []View, error) {
	a, err := s.assignees.GetByName(name)
	if err != nil {
		return nil, nil, err
	}
	if a == nil {
		return nil, nil, &NotFoundError{Entity: "assignee", Key: name}
	}
	chores, err := s.chores.ListByOwner(a.ID)
	if err != nil {
		return nil, nil, err
	}
	views, err := DeriveAll(chores, s.clock.Today())
	if err != nil {
		return nil, nil, err
	}
	SortByDue(views)
	return a, views, nil
}

// ListPriorities returns flagged chores by due date.
func (s *Service) ListPriorities() ([]View, error) {
	chores, err := s.chores.ListPriority()
	if err != nil {
		return nil, err
	}
	views, err := DeriveAll(chores, s.clock.Today())
	if err != nil {
		return nil, err
	}
	SortByDue(views)
	return views, nil
}

func (s *Service) checkOwner(id int64) (*model.Assignee, error) {
	a, err := s.assignees.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("look up assignee: %w", err)
	}
	if a == nil {
		return nil, invalid("owner_id", "assignee %d does not exist", id)
	}
	return a, nil
}

// Create validates in and stores a new chore.
func (s *Service) Create(in CreateInput) (*View, error) {
	c, err := buildChore(in)
	if err != nil {
		return nil, err
	}
	if _, err := s.checkOwner(c.OwnerID); err != nil {
		return nil, err
	}
	created, err := s.chores.Create(c)
	if err != nil {
		return nil, fmt.Errorf("create chore: %w", err)
	}
	s.logger.Info("chore created", "chore_id", created.ID, "title", created.Title, "owner_id", created.OwnerID)
	return s.view(created)
}

// Edit applies a partial update. Fields that are set are validated the same
// way as on create.
func (s *Service) Edit(id int64, in EditInput) (*View, error) {
	e, err := parseEdit(in)
	if err != nil {
		return nil, err
	}
	existing, err := s.chores.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, choreNotFound(id)
	}
	if in.OwnerID != nil {
		if _, err := s.checkOwner(*in.OwnerID); err != nil {
			return nil, err
		}
	}
	return s.mutate(id, "edited", func(c *model.Chore) error {
		e.apply(c)
		return nil
	})
}

// Complete records a completion today.
func (s *Service) Complete(id int64) (*View, error) {
	today := s.clock.Today()
	return s.mutate(id, "completed", func(c *model.Chore) error {
		Complete(c, today)
		return nil
	})
}

// Undo reverts the most recent completion.
func (s *Service) Undo(id int64) (*View, error) {
	return s.mutate(id, "completion undone", Undo)
}

// TogglePriority flips the priority flag.
func (s *Service) TogglePriority(id int64) (*View, error) {
	return s.mutate(id, "priority toggled", func(c *model.Chore) error {
		TogglePriority(c)
		return nil
	})
}

// Delete removes a chore.
func (s *Service) Delete(id int64) error {
	ok, err := s.chores.Delete(id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	if !ok {
		return choreNotFound(id)
	}
	s.logger.Info("chore deleted", "chore_id", id)
	return nil
}

func (s *Service) mutate(id int64, action string, fn func(*model.Chore) error) (*View, error) {
	c, err := s.chores.Mutate(id, fn)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, choreNotFound(id)
	}
	s.logger.Info("chore "+action, "chore_id", id)
	return s.view(c)
}

// Assignees returns all assignees by name.
func (s *Service) Assignees() ([]model.Assignee, error) {
	return s.assignees.List()
}

// AddAssignee creates an assignee with a unique, non-empty name.
func (s *Service) AddAssignee(name string) (*model.Assignee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	existing, err := s.assignees.GetByName(name)
	if err != nil {
		return nil, fmt.Errorf("look up assignee: %w", err)
	}
	if existing != nil {
		return nil, invalid("name", "assignee %q already exists", name)
	}
	a, err := s.assignees.Create(name)
	if err != nil {
		return nil, fmt.Errorf("create assignee: %w", err)
	}
	s.logger.Info("assignee created", "assignee_id", a.ID, "name", a.Name)
	return a, nil
}

// RemoveAssignee deletes an assignee who owns no chores.
func (s *Service) RemoveAssignee(id int64) error {
	a, err := s.assignees.GetByID(id)
	if err != nil {
		return fmt.Errorf("look up assignee: %w", err)
	}
	if a == nil {
		return &NotFoundError{Entity: "assignee", Key: fmt.Sprint(id)}
	}
	owned, err := s.chores.ListByOwner(id)
	if err != nil {
		return err
	}
	if len(owned) > 0 {
		return invalid("id", "%s still owns %d chores", a.Name, len(owned))
	}
	if err := s.assignees.Delete(id); err != nil {
		return fmt.Errorf("delete assignee: %w", err)
	}
	s.logger.Info("assignee removed", "assignee_id", id, "name", a.Name)
	return nil
}

// SeedAssignees creates any of names that do not exist yet and returns how
// many were added.
func (s *Service) SeedAssignees(names []string) (int, error) {
	added := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		existing, err := s.assignees.GetByName(name)
		if err != nil {
			return added, fmt.Errorf("look up assignee: %w", err)
		}
		if existing != nil {
			continue
		}
		if _, err := s.AddAssignee(name); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
