package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DBPath != "chorechart.db" || cfg.Timezone != "UTC" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Digest.Schedule != "0 7 * * *" {
		t.Errorf("digest schedule = %q", cfg.Digest.Schedule)
	}
	if len(cfg.Digest.Recipients) != 0 {
		t.Errorf("recipients = %v, want none", cfg.Digest.Recipients)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if cfg.BackupEnabled() || cfg.DigestReady() {
		t.Error("backup and digest should be off by default")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chorechart.yaml")
	yaml := `port: "9090"
timezone: America/Denver
digest:
  enabled: true
  schedule: "30 6 * * *"
  recipients:
    - a@example.com
    - b@example.com
email:
  postmark_token: tok
  from: chores@example.com
seed_assignees: [Dan, Kim]
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHORECHART_PORT", "7070")
	t.Setenv("CHORECHART_BACKUP_S3_BUCKET", "backups")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "7070" {
		t.Errorf("port = %q, env should win", cfg.Port)
	}
	if cfg.Timezone != "America/Denver" {
		t.Errorf("timezone = %q", cfg.Timezone)
	}
	if cfg.Backup.S3.Bucket != "backups" {
		t.Errorf("bucket = %q", cfg.Backup.S3.Bucket)
	}
	if want := []string{"a@example.com", "b@example.com"}; !reflect.DeepEqual(cfg.Digest.Recipients, want) {
		t.Errorf("recipients = %v, want %v", cfg.Digest.Recipients, want)
	}
	if want := []string{"Dan", "Kim"}; !reflect.DeepEqual(cfg.SeedAssignees, want) {
		t.Errorf("seed = %v, want %v", cfg.SeedAssignees, want)
	}
	if !cfg.DigestReady() {
		t.Error("digest should be ready")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestRecipientsFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CHORECHART_DIGEST_RECIPIENTS", "a@example.com, ,b@example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if want := []string{"a@example.com", "b@example.com"}; !reflect.DeepEqual(cfg.Digest.Recipients, want) {
		t.Errorf("recipients = %v, want %v", cfg.Digest.Recipients, want)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"bad digest schedule", func(c *Config) {
			c.Digest.Enabled = true
			c.Digest.Schedule = "daily"
		}},
		{"bad backup schedule", func(c *Config) { c.Backup.Schedule = "* *" }},
		{"zero burst", func(c *Config) { c.RateLimit.Burst = 0 }},
		{"empty port", func(c *Config) { c.Port = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Port:      "8080",
				DBPath:    "x.db",
				Timezone:  "UTC",
				RateLimit: RateLimitConfig{RPS: 1, Burst: 1},
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
