// Package importer loads chores in bulk from tab-delimited exports.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/chorechart/internal/chore"
	"github.com/dukerupert/chorechart/internal/model"
)

// DateLayout is the completion date format used by the export, e.g. "Mar 4, 2025".
const DateLayout = "Jan 2, 2006"

var columns = []string{"assignee", "title", "category", "frequency", "lastCompleted", "isPriority", "notes"}

// AssigneeResolver finds assignees by name, returning nil when unknown.
type AssigneeResolver interface {
	GetByName(name string) (*model.Assignee, error)
}

// Creator stores a validated chore.
type Creator interface {
	Create(in chore.CreateInput) (*chore.View, error)
}

// Result summarizes an import. Skipped rows each leave one warning.
type Result struct {
	Imported int
	Warnings []string
}

type Importer struct {
	assignees AssigneeResolver
	chores    Creator
	logger    *slog.Logger
}

func New(assignees AssigneeResolver, chores Creator, logger *slog.Logger) *Importer {
	return &Importer{assignees: assignees, chores: chores, logger: logger}
}

// Import reads a header row followed by one chore per row. A row with an
// unknown assignee or a field that does not parse is skipped and the rest of
// the batch continues. Only unreadable input or a store failure stops it.
func (im *Importer) Import(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, col := range columns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("header is missing column %q", col)
		}
	}

	res := &Result{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if isBlank(record) {
			continue
		}

		row := make(map[string]string, len(columns))
		missing := ""
		for _, col := range columns {
			i := index[col]
			if i >= len(record) {
				missing = col
				break
			}
			row[col] = record[i]
		}
		if missing != "" {
			res.warn(im.logger, line, "missing column %q, skipping row", missing)
			continue
		}

		if err := im.importRow(row); err != nil {
			var skip *skipError
			if errors.As(err, &skip) {
				res.warn(im.logger, line, "%s, skipping row", skip.msg)
				continue
			}
			return res, fmt.Errorf("line %d: %w", line, err)
		}
		res.Imported++
	}

	im.logger.Info("import finished", "imported", res.Imported, "skipped", len(res.Warnings))
	return res, nil
}

type skipError struct{ msg string }

func (e *skipError) Error() string { return e.msg }

func skip(format string, args ...any) error {
	return &skipError{msg: fmt.Sprintf(format, args...)}
}

func (im *Importer) importRow(row map[string]string) error {
	name := strings.TrimSpace(row["assignee"])
	assignee, err := im.assignees.GetByName(name)
	if err != nil {
		return fmt.Errorf("look up assignee: %w", err)
	}
	if assignee == nil {
		return skip("assignee %q not found", name)
	}

	last, err := time.Parse(DateLayout, strings.TrimSpace(row["lastCompleted"]))
	if err != nil {
		return skip("invalid lastCompleted %q", row["lastCompleted"])
	}

	_, err = im.chores.Create(chore.CreateInput{
		Title:         row["title"],
		OwnerID:       &assignee.ID,
		Category:      row["category"],
		Frequency:     row["frequency"],
		LastCompleted: last.Format(chore.DateLayout),
		IsPriority:    strings.EqualFold(strings.TrimSpace(row["isPriority"]), "TRUE"),
		Notes:         row["notes"],
	})
	var ve *chore.ValidationError
	if errors.As(err, &ve) {
		return skip("invalid %s: %s", ve.Field, ve.Message)
	}
	return err
}

func (r *Result) warn(logger *slog.Logger, line int, format string, args ...any) {
	msg := fmt.Sprintf("line %d: %s", line, fmt.Sprintf(format, args...))
	r.Warnings = append(r.Warnings, msg)
	logger.Warn("import row skipped", "line", line, "reason", fmt.Sprintf(format, args...))
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
