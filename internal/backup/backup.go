// Package backup writes encrypted snapshots of the chore database to
// S3-compatible storage and restores them.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "modernc.org/sqlite"
)

const (
	keyPrefix = "chorechart-"
	keySuffix = ".db.enc"
	keyLayout = "20060102-150405"
)

// ErrDisabled is returned when storage or the passphrase is not configured.
var ErrDisabled = errors.New("backup not configured")

// ErrDestinationExists is returned when Restore would replace an existing file.
var ErrDestinationExists = errors.New("restore destination already exists")

// s3Client is the subset of *s3.Client the manager uses.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

type Config struct {
	S3         S3Config
	Passphrase string
	// Retain is the number of most recent backups kept after each run.
	// Zero keeps everything.
	Retain int
}

func (c Config) enabled() bool {
	return c.Passphrase != "" && c.S3.Bucket != "" && c.S3.AccessKey != "" && c.S3.SecretKey != ""
}

// Result describes one uploaded backup.
type Result struct {
	Key  string
	Size int64
	At   time.Time
}

// Manager snapshots the database with VACUUM INTO, encrypts the snapshot and
// uploads it. Runs are serialized.
type Manager struct {
	mu     sync.Mutex
	cfg    Config
	db     *sql.DB
	client s3Client
	logger *slog.Logger
	now    func() time.Time
	last   *Result
}

func NewManager(cfg Config, db *sql.DB, logger *slog.Logger) *Manager {
	m := &Manager{cfg: cfg, db: db, logger: logger, now: time.Now}
	if cfg.enabled() {
		m.client = newS3Client(cfg.S3)
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether Run can upload.
func (m *Manager) Enabled() bool {
	return m.client != nil
}

// Last returns the most recent successful run, if any.
func (m *Manager) Last() *Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Key names a backup taken at t.
func Key(t time.Time) string {
	return keyPrefix + t.UTC().Format(keyLayout) + keySuffix
}

// Run takes one backup and prunes old ones past the retention count.
func (m *Manager) Run(ctx context.Context) (*Result, error) {
	if m.client == nil {
		return nil, ErrDisabled
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	at := m.now().UTC()
	snapshot, err := m.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	sealed, err := Encrypt(snapshot, m.cfg.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}

	key := Key(at)
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.S3.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	})
	if err != nil {
		return nil, fmt.Errorf("upload to s3: %w", err)
	}

	res := &Result{Key: key, Size: int64(len(sealed)), At: at}
	m.last = res
	m.logger.Info("backup uploaded", "key", key, "bytes", res.Size)

	if m.cfg.Retain > 0 {
		if err := m.prune(ctx, m.cfg.Retain); err != nil {
			m.logger.Warn("backup prune failed", "error", err)
		}
	}
	return res, nil
}

// snapshot writes a consistent copy of the database to a temp file and
// returns its bytes.
func (m *Manager) snapshot(ctx context.Context) ([]byte, error) {
	dir, err := os.MkdirTemp("", "chorechart-backup-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "snapshot.db")
	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return nil, fmt.Errorf("vacuum into: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

// List returns backup keys in the bucket, newest first.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	if m.client == nil {
		return nil, ErrDisabled
	}
	var keys []string
	var token *string
	for {
		out, err := m.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(m.cfg.S3.Bucket),
			Prefix:            aws.String(keyPrefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list backups: %w", err)
		}
		for _, obj := range out.Contents {
			if k := aws.ToString(obj.Key); strings.HasSuffix(k, keySuffix) {
				keys = append(keys, k)
			}
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}
	// Keys embed a sortable timestamp.
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

func (m *Manager) prune(ctx context.Context, retain int) error {
	keys, err := m.List(ctx)
	if err != nil {
		return err
	}
	if len(keys) <= retain {
		return nil
	}
	var errs []error
	for _, key := range keys[retain:] {
		if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.cfg.S3.Bucket),
			Key:    aws.String(key),
		}); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
			continue
		}
		m.logger.Info("backup pruned", "key", key)
	}
	return errors.Join(errs...)
}

// Restore downloads the backup named key, decrypts it and writes it to dst
// after an integrity check. dst must not exist yet, so the live database is
// never replaced.
func (m *Manager) Restore(ctx context.Context, key, dst string) error {
	if m.client == nil {
		return ErrDisabled
	}
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", dst, err)
	}

	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.S3.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}
	defer out.Body.Close()

	sealed, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	plaintext, err := Decrypt(sealed, m.cfg.Passphrase)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".chorechart-restore-*.db")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(plaintext); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := checkIntegrity(ctx, tmpPath); err != nil {
		return err
	}
	// Link fails if dst appeared since the check above.
	if err := os.Link(tmpPath, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		}
		return fmt.Errorf("place %s: %w", dst, err)
	}
	m.logger.Info("backup restored", "key", key, "path", dst)
	return nil
}

func checkIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}
