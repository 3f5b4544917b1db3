package store

import (
	"database/sql"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dukerupert/chorechart/internal/model"
)

const assigneeCacheSize = 256

// AssigneeStore persists assignees. Name lookups, which the importer and the
// per-assignee view do repeatedly, are served from an LRU cache.
type AssigneeStore struct {
	db     *sql.DB
	byName *lru.Cache[string, model.Assignee]
}

func NewAssigneeStore(db *sql.DB) *AssigneeStore {
	cache, err := lru.New[string, model.Assignee](assigneeCacheSize)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	return &AssigneeStore{db: db, byName: cache}
}

const assigneeCols = `id, name, created_at`

func scanAssignee(scanner interface{ Scan(...any) error }) (*model.Assignee, error) {
	var a model.Assignee
	if err := scanner.Scan(&a.ID, &a.Name, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AssigneeStore) Create(name string) (*model.Assignee, error) {
	result, err := s.db.Exec(`INSERT INTO assignees (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert assignee: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AssigneeStore) GetByID(id int64) (*model.Assignee, error) {
	a, err := scanAssignee(s.db.QueryRow(`SELECT `+assigneeCols+` FROM assignees WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignee: %w", err)
	}
	return a, nil
}

func (s *AssigneeStore) GetByName(name string) (*model.Assignee, error) {
	if a, ok := s.byName.Get(name); ok {
		return &a, nil
	}
	a, err := scanAssignee(s.db.QueryRow(`SELECT `+assigneeCols+` FROM assignees WHERE name = ?`, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignee by name: %w", err)
	}
	s.byName.Add(a.Name, *a)
	return a, nil
}

func (s *AssigneeStore) List() ([]model.Assignee, error) {
	rows, err := s.db.Query(`SELECT ` + assigneeCols + ` FROM assignees ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	defer rows.Close()

	assignees := []model.Assignee{}
	for rows.Next() {
		a, err := scanAssignee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignee: %w", err)
		}
		assignees = append(assignees, *a)
	}
	return assignees, rows.Err()
}

// Delete removes an assignee. It fails while the assignee still owns chores.
func (s *AssigneeStore) Delete(id int64) error {
	a, err := s.GetByID(id)
	if err != nil || a == nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM assignees WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete assignee: %w", err)
	}
	s.byName.Remove(a.Name)
	return nil
}

// Purge drops cached lookups, for use after the table is rewritten outside
// the store.
func (s *AssigneeStore) Purge() {
	s.byName.Purge()
}
