package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dukerupert/chorechart/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:          "0",
		DBPath:        filepath.Join(t.TempDir(), "chores.db"),
		Timezone:      "America/Denver",
		Log:           config.LogConfig{Level: "error"},
		Digest:        config.DigestConfig{Schedule: "0 7 * * *"},
		RateLimit:     config.RateLimitConfig{RPS: 1, Burst: 5},
		SeedAssignees: []string{"Dan", "Kim"},
	}
}

func runCmd(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := run(context.Background(), cfg, logger, args, &out)
	return out.String(), err
}

func TestCommands(t *testing.T) {
	cfg := testConfig(t)

	out, err := runCmd(t, cfg, "init-db")
	if err != nil {
		t.Fatalf("init-db: %v", err)
	}
	if !strings.Contains(out, "2 assignees added") {
		t.Errorf("init-db output %q", out)
	}

	if _, err := runCmd(t, cfg, "assignee", "add", "Lee"); err != nil {
		t.Fatalf("assignee add: %v", err)
	}
	if _, err := runCmd(t, cfg, "assignee", "add", "Lee"); err == nil {
		t.Error("duplicate assignee should fail")
	}
	out, err = runCmd(t, cfg, "assignee", "list")
	if err != nil {
		t.Fatalf("assignee list: %v", err)
	}
	if !strings.Contains(out, "Dan") || !strings.Contains(out, "Lee") {
		t.Errorf("assignee list output %q", out)
	}

	path := filepath.Join(t.TempDir(), "chores.tsv")
	data := "assignee\ttitle\tcategory\tfrequency\tlastCompleted\tisPriority\tnotes\n" +
		"Dan\tClean gutters\tOutside\t7\tJan 5, 2020\tTRUE\tladder in garage\n" +
		"Zed\tMow lawn\tOutside\t7\tJan 5, 2020\tFALSE\t\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err = runCmd(t, cfg, "import", path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "imported 1 chores") || !strings.Contains(out, "warning:") {
		t.Errorf("import output %q", out)
	}

	out, err = runCmd(t, cfg, "digest")
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if !strings.Contains(out, "[priority] Clean gutters (Outside): Overdue") {
		t.Errorf("digest output %q", out)
	}

	if _, err := runCmd(t, cfg, "digest", "-send"); err == nil {
		t.Error("sending without email config should fail")
	}
	if _, err := runCmd(t, cfg, "backup"); err == nil {
		t.Error("backup without storage config should fail")
	}
	if _, err := runCmd(t, cfg, "backup", "restore", "chorechart-20260301-070000.db.enc", cfg.DBPath); err == nil || !strings.Contains(err.Error(), "live database") {
		t.Errorf("restore over the live database: err = %v", err)
	}
	if _, err := os.Stat(cfg.DBPath); err != nil {
		t.Errorf("live database: %v", err)
	}

	out, err = runCmd(t, cfg, "reset-db")
	if err != nil {
		t.Fatalf("reset-db: %v", err)
	}
	if !strings.Contains(out, "2 assignees added") {
		t.Errorf("reset-db output %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := runCmd(t, testConfig(t), "frobnicate"); err == nil {
		t.Error("expected error for unknown command")
	}
	if _, err := runCmd(t, testConfig(t), "import"); err == nil {
		t.Error("import without a file should fail")
	}
}
