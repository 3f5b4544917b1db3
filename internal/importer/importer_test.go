package importer

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/chorechart/internal/chore"
	"github.com/dukerupert/chorechart/internal/model"
)

type fakeAssignees map[string]int64

func (f fakeAssignees) GetByName(name string) (*model.Assignee, error) {
	id, ok := f[name]
	if !ok {
		return nil, nil
	}
	return &model.Assignee{ID: id, Name: name}, nil
}

// recorder validates through a real chore.Service so the importer sees the
// same errors it would in production.
type recorder struct {
	svc     *chore.Service
	created []chore.CreateInput
}

func (r *recorder) Create(in chore.CreateInput) (*chore.View, error) {
	v, err := r.svc.Create(in)
	if err == nil {
		r.created = append(r.created, in)
	}
	return v, err
}

type nopChores struct{ n int64 }

func (s *nopChores) GetByID(int64) (*model.Chore, error) { return nil, nil }
func (s *nopChores) List() ([]model.Chore, error) { return nil, nil }
func (s *nopChores) ListByOwner(int64) ([]model.Chore, error) { return nil, nil }
func (s *nopChores) ListPriority() ([]model.Chore, error) { return nil, nil }
func (s *nopChores) Delete(int64) (bool, error) { return false, nil }
func (s *nopChores) Mutate(int64, func(*model.Chore) error) (*model.Chore, error) {
	return nil, nil
}
func (s *nopChores) Create(c model.Chore) (*model.Chore, error) {
	s.n++
	c.ID = s.n
	return &c, nil
}

type idAssignees struct{ fakeAssignees }

func (a idAssignees) GetByID(id int64) (*model.Assignee, error) {
	for name, aid := range a.fakeAssignees {
		if aid == id {
			return &model.Assignee{ID: id, Name: name}, nil
		}
	}
	return nil, nil
}
func (a idAssignees) List() ([]model.Assignee, error) { return nil, nil }
func (a idAssignees) Create(string) (*model.Assignee, error) { return nil, nil }
func (a idAssignees) Delete(int64) error { return nil }

func setup() (*Importer, *recorder) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assignees := fakeAssignees{"Dan": 1, "Kim": 2, "Dan + Kim": 3}
	svc := chore.NewService(&nopChores{}, idAssignees{assignees}, chore.FixedClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)), logger)
	rec := &recorder{svc: svc}
	return New(assignees, rec, logger), rec
}

const header = "assignee\ttitle\tcategory\tfrequency\tlastCompleted\tisPriority\tnotes\n"

func TestImportSkipsUnknownAssignee(t *testing.T) {
	im, rec := setup()
	input := header +
		"Dan\tClean gutters\tYard\t90\tOct 5, 2025\tFALSE\tladder\n" +
		"Zed\tWash car\tYard\t30\tJan 2, 2026\tFALSE\t\n" +
		"Kim\tChange sheets\tBedroom\t7\tFeb 27, 2026\tTRUE\t\n"

	res, err := im.Import(strings.NewReader(input))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != 2 {
		t.Errorf("imported = %d, want 2", res.Imported)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings = %v, want 1", res.Warnings)
	}
	if !strings.Contains(res.Warnings[0], "line 3") || !strings.Contains(res.Warnings[0], "Zed") {
		t.Errorf("warning = %q", res.Warnings[0])
	}

	if len(rec.created) != 2 {
		t.Fatalf("created = %d, want 2", len(rec.created))
	}
	first, second := rec.created[0], rec.created[1]
	if first.Title != "Clean gutters" || *first.OwnerID != 1 || first.LastCompleted != "2025-10-05" || first.IsPriority {
		t.Errorf("first row = %+v", first)
	}
	if second.Title != "Change sheets" || *second.OwnerID != 2 || !second.IsPriority {
		t.Errorf("third row = %+v", second)
	}
}

func TestImportSkipsBadFields(t *testing.T) {
	im, _ := setup()
	input := header +
		"Dan\tMop\tKitchen\tweekly\tFeb 1, 2026\tFALSE\t\n" +
		"Dan\tSweep\tKitchen\t7\t2026-02-01\tFALSE\t\n" +
		"Dan\t\tKitchen\t7\tFeb 1, 2026\tFALSE\t\n" +
		"Dan\tShort row\n" +
		"\n" +
		"Dan + Kim\tTaxes\tAdmin\t365\tApr 15, 2025\ttrue\tfile early\n"

	res, err := im.Import(strings.NewReader(input))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != 1 {
		t.Errorf("imported = %d, want 1", res.Imported)
	}
	if len(res.Warnings) != 4 {
		t.Errorf("warnings = %d, want 4: %v", len(res.Warnings), res.Warnings)
	}
}

func TestImportRejectsMissingHeaderColumn(t *testing.T) {
	im, _ := setup()
	_, err := im.Import(strings.NewReader("assignee\ttitle\nDan\tMop\n"))
	if err == nil {
		t.Fatal("expected error for incomplete header")
	}
}

func TestImportEmptyInput(t *testing.T) {
	im, _ := setup()
	if _, err := im.Import(strings.NewReader("")); err == nil {
		t.Fatal("expected error for missing header")
	}
}
