package main

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dukerupert/chorechart/internal/backup"
	"github.com/dukerupert/chorechart/internal/chore"
	"github.com/dukerupert/chorechart/internal/config"
	"github.com/dukerupert/chorechart/internal/database"
	"github.com/dukerupert/chorechart/internal/digest"
	"github.com/dukerupert/chorechart/internal/email"
	"github.com/dukerupert/chorechart/internal/store"
)

// app holds the components every command shares.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	loc       *time.Location
	db        *sql.DB
	assignees *store.AssigneeStore
	chores    *chore.Service
	digests   *digest.Service
	backups   *backup.Manager
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	assignees := store.NewAssigneeStore(db)
	chores := chore.NewService(store.NewChoreStore(db), assignees, chore.NewClock(loc), logger.With("component", "chore"))

	mail := email.NewClient(cfg.Email.PostmarkToken, cfg.Email.From)
	digests := digest.NewService(chores, mail, cfg.Digest.Recipients, logger.With("component", "digest")).
		WithLink(cfg.BaseURL)

	backups := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.Backup.S3.Endpoint,
			Bucket:    cfg.Backup.S3.Bucket,
			Region:    cfg.Backup.S3.Region,
			AccessKey: cfg.Backup.S3.AccessKey,
			SecretKey: cfg.Backup.S3.SecretKey,
		},
		Passphrase: cfg.Backup.Passphrase,
		Retain:     cfg.Backup.Retain,
	}, db, logger.With("component", "backup"))

	return &app{
		cfg:       cfg,
		logger:    logger,
		loc:       loc,
		db:        db,
		assignees: assignees,
		chores:    chores,
		digests:   digests,
		backups:   backups,
	}, nil
}

func (a *app) close() {
	a.db.Close()
}

func (a *app) seed(out io.Writer) error {
	added, err := a.chores.SeedAssignees(a.cfg.SeedAssignees)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "database ready at %s (%d assignees added)\n", a.cfg.DBPath, added)
	return nil
}
