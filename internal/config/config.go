// Package config loads chorechart settings from defaults, an optional
// chorechart.yaml and CHORECHART_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dukerupert/chorechart/internal/jobs"
)

type Config struct {
	Port     string
	DBPath   string
	Timezone string
	BaseURL  string

	Log       LogConfig
	Digest    DigestConfig
	Email     EmailConfig
	Backup    BackupConfig
	RateLimit RateLimitConfig

	SeedAssignees []string
}

type LogConfig struct {
	Level  string
	Format string
}

type DigestConfig struct {
	Enabled    bool
	Schedule   string
	Recipients []string
}

type EmailConfig struct {
	PostmarkToken string
	From          string
}

type BackupConfig struct {
	Schedule   string
	Passphrase string
	Retain     int
	S3         S3Config
}

type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads configuration. An empty path searches ./, ./config and
// /etc/chorechart for chorechart.yaml; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("chorechart")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/chorechart/")
	}

	v.SetEnvPrefix("CHORECHART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Port:     v.GetString("port"),
		DBPath:   v.GetString("db_path"),
		Timezone: v.GetString("timezone"),
		BaseURL:  v.GetString("base_url"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Digest: DigestConfig{
			Enabled:    v.GetBool("digest.enabled"),
			Schedule:   v.GetString("digest.schedule"),
			Recipients: stringList(v, "digest.recipients"),
		},
		Email: EmailConfig{
			PostmarkToken: v.GetString("email.postmark_token"),
			From:          v.GetString("email.from"),
		},
		Backup: BackupConfig{
			Schedule:   v.GetString("backup.schedule"),
			Passphrase: v.GetString("backup.passphrase"),
			Retain:     v.GetInt("backup.retain"),
			S3: S3Config{
				Endpoint:  v.GetString("backup.s3.endpoint"),
				Bucket:    v.GetString("backup.s3.bucket"),
				Region:    v.GetString("backup.s3.region"),
				AccessKey: v.GetString("backup.s3.access_key"),
				SecretKey: v.GetString("backup.s3.secret_key"),
			},
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("ratelimit.rps"),
			Burst: v.GetInt("ratelimit.burst"),
		},
		SeedAssignees: stringList(v, "seed_assignees"),
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "chorechart.db")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("digest.enabled", false)
	v.SetDefault("digest.schedule", "0 7 * * *")
	v.SetDefault("digest.recipients", []string{})
	v.SetDefault("email.postmark_token", "")
	v.SetDefault("email.from", "")
	v.SetDefault("backup.schedule", "")
	v.SetDefault("backup.passphrase", "")
	v.SetDefault("backup.retain", 14)
	v.SetDefault("backup.s3.endpoint", "")
	v.SetDefault("backup.s3.bucket", "")
	v.SetDefault("backup.s3.region", "us-east-1")
	v.SetDefault("backup.s3.access_key", "")
	v.SetDefault("backup.s3.secret_key", "")
	v.SetDefault("ratelimit.rps", 2.0)
	v.SetDefault("ratelimit.burst", 20)
	v.SetDefault("seed_assignees", []string{})
}

// stringList reads a list that may come from YAML or from a comma-separated
// environment variable.
func stringList(v *viper.Viper, key string) []string {
	var raw []string
	switch val := v.Get(key).(type) {
	case string:
		raw = strings.Split(val, ",")
	default:
		raw = v.GetStringSlice(key)
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Location resolves the configured IANA timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Digest.Enabled {
		if err := jobs.ValidateSpec(c.Digest.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("digest.schedule: %w", err))
		}
	}
	if c.Backup.Schedule != "" {
		if err := jobs.ValidateSpec(c.Backup.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("backup.schedule: %w", err))
		}
	}
	if c.Backup.Retain < 0 {
		errs = append(errs, fmt.Errorf("backup.retain must not be negative, got %d", c.Backup.Retain))
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1 {
		errs = append(errs, fmt.Errorf("ratelimit: rps must be > 0 and burst >= 1, got %v/%d", c.RateLimit.RPS, c.RateLimit.Burst))
	}
	return errors.Join(errs...)
}

// DigestReady reports whether scheduled digests can actually be delivered.
func (c *Config) DigestReady() bool {
	return c.Digest.Enabled && c.Email.PostmarkToken != "" && c.Email.From != "" && len(c.Digest.Recipients) > 0
}

// BackupEnabled reports whether every setting needed to upload a backup is present.
func (c *Config) BackupEnabled() bool {
	s := c.Backup.S3
	return c.Backup.Passphrase != "" && s.Bucket != "" && s.AccessKey != "" && s.SecretKey != ""
}
