package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

const dateLayout = "2006-01-02"

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

func parseDate(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, ns.String)
	if err != nil {
		return nil, fmt.Errorf("parse stored date %q: %w", ns.String, err)
	}
	return &t, nil
}

func formatDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var last, prev sql.NullString

	err := scanner.Scan(
		&c.ID, &c.Title, &c.OwnerID, &c.OwnerName, &c.Category, &c.FrequencyDays,
		&last, &prev, &c.IsPriority, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if c.LastCompleted, err = parseDate(last); err != nil {
		return nil, err
	}
	if c.PreviousLastCompleted, err = parseDate(prev); err != nil {
		return nil, err
	}
	return &c, nil
}

const choreSelect = `SELECT c.id, c.title, c.owner_id, a.name, c.category, c.frequency_days,
	c.last_completed, c.previous_last_completed, c.is_priority, c.notes, c.created_at, c.updated_at
	FROM chores c JOIN assignees a ON a.id = c.owner_id`

func (s *ChoreStore) Create(c model.Chore) (*model.Chore, error) {
	result, err := s.db.Exec(
		`INSERT INTO chores (title, owner_id, category, frequency_days, last_completed, previous_last_completed, is_priority, notes)
		VALUES (?, ?, ?, ?, COALESCE(?, date('now')), ?, ?, ?)`,
		c.Title, c.OwnerID, c.Category, c.FrequencyDays,
		formatDate(c.LastCompleted), formatDate(c.PreviousLastCompleted), c.IsPriority, c.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) GetByID(id int64) (*model.Chore, error) {
	row := s.db.QueryRow(choreSelect+` WHERE c.id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) query(where string, args ...any) ([]model.Chore, error) {
	rows, err := s.db.Query(choreSelect+where+` ORDER BY c.id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	chores := []model.Chore{}
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

// List returns every chore. Ordering for display is applied by the caller.
func (s *ChoreStore) List() ([]model.Chore, error) {
	return s.query("")
}

func (s *ChoreStore) ListByOwner(ownerID int64) ([]model.Chore, error) {
	return s.query(` WHERE c.owner_id = ?`, ownerID)
}

func (s *ChoreStore) ListPriority() ([]model.Chore, error) {
	return s.query(` WHERE c.is_priority = 1`)
}

// Mutate reads the chore, applies fn and writes every field back inside one
// transaction. It returns nil, nil when the chore does not exist and fn's
// error unchanged when fn rejects the change.
func (s *ChoreStore) Mutate(id int64, fn func(*model.Chore) error) (*model.Chore, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	c, err := scanChore(tx.QueryRow(choreSelect+` WHERE c.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}

	if err := fn(c); err != nil {
		return nil, err
	}

	_, err = tx.Exec(
		`UPDATE chores SET title = ?, owner_id = ?, category = ?, frequency_days = ?,
		last_completed = ?, previous_last_completed = ?, is_priority = ?, notes = ?,
		updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		c.Title, c.OwnerID, c.Category, c.FrequencyDays,
		formatDate(c.LastCompleted), formatDate(c.PreviousLastCompleted), c.IsPriority, c.Notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes a chore and reports whether it existed.
func (s *ChoreStore) Delete(id int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete chore: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
