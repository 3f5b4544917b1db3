package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dukerupert/chorechart/internal/config"
	"github.com/dukerupert/chorechart/internal/database"
	"github.com/dukerupert/chorechart/internal/importer"
	"github.com/dukerupert/chorechart/internal/jobs"
	"github.com/dukerupert/chorechart/internal/logging"
	"github.com/dukerupert/chorechart/internal/server"
)

const usage = `usage: chorechart [-config file] <command> [args]

commands:
  serve                  run the HTTP server and scheduled jobs (default)
  init-db                apply migrations and seed assignees
  reset-db               drop all data, re-apply migrations and seed assignees
  import <file>          load chores from a tab-delimited export
  assignee add <name>    create an assignee
  assignee list          list assignees
  digest [-send]         print today's digest, or send it
  backup                 upload an encrypted backup now
  backup list            list stored backups
  backup restore <key> <path>
                         download and decrypt a backup to path
`

func main() {
	cfgPath := flag.String("config", "", "path to chorechart.yaml")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger, flag.Args(), os.Stdout); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string, out io.Writer) error {
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	switch cmd {
	case "serve":
		return serve(ctx, a)
	case "init-db":
		return a.seed(out)
	case "reset-db":
		if err := database.Reset(a.db); err != nil {
			return err
		}
		a.assignees.Purge()
		fmt.Fprintln(out, "database reset")
		return a.seed(out)
	case "import":
		return importFile(a, args, out)
	case "assignee":
		return assigneeCmd(a, args, out)
	case "digest":
		return digestCmd(ctx, a, args, out)
	case "backup":
		return backupCmd(ctx, a, args, out)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func serve(ctx context.Context, a *app) error {
	if _, err := a.chores.SeedAssignees(a.cfg.SeedAssignees); err != nil {
		return err
	}

	srv := server.New(a.db, a.chores, a.digests, server.Options{
		RateLimitRPS:   a.cfg.RateLimit.RPS,
		RateLimitBurst: a.cfg.RateLimit.Burst,
		LastBackup: func() (time.Time, bool) {
			if res := a.backups.Last(); res != nil {
				return res.At, true
			}
			return time.Time{}, false
		},
	}, a.logger)

	runner, err := a.scheduleJobs(srv)
	if err != nil {
		return err
	}
	runner.Start()
	for _, name := range []string{"digest", "backup"} {
		if next, ok := runner.Next(name); ok {
			a.logger.Info("job scheduled", "job", name, "next", next)
		}
	}

	httpServer := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("chorechart listening", "addr", httpServer.Addr, "timezone", a.cfg.Timezone)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	srv.Hub().Close()
	runner.Stop(shutdownCtx)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *app) scheduleJobs(srv *server.Server) (*jobs.Runner, error) {
	runner := jobs.New(a.loc, a.logger.With("component", "jobs"))

	if err := runner.Add("ratelimit-cleanup", "@every 10m", func(context.Context) error {
		srv.RateLimiter().Cleanup(10 * time.Minute)
		return nil
	}); err != nil {
		return nil, err
	}

	switch {
	case a.cfg.DigestReady():
		if err := runner.Add("digest", a.cfg.Digest.Schedule, func(ctx context.Context) error {
			_, err := a.digests.Send(ctx)
			return err
		}); err != nil {
			return nil, err
		}
	case a.cfg.Digest.Enabled:
		a.logger.Warn("digest enabled but email or recipients are not configured; not scheduling")
	}

	if a.cfg.Backup.Schedule != "" {
		if !a.backups.Enabled() {
			a.logger.Warn("backup schedule set but storage or passphrase missing; not scheduling")
		} else if err := runner.Add("backup", a.cfg.Backup.Schedule, func(ctx context.Context) error {
			_, err := a.backups.Run(ctx)
			return err
		}); err != nil {
			return nil, err
		}
	}
	return runner, nil
}

func importFile(a *app, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: chorechart import <file>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	res, err := importer.New(a.assignees, a.chores, a.logger.With("component", "import")).Import(f)
	if res != nil {
		for _, w := range res.Warnings {
			fmt.Fprintln(out, "warning:", w)
		}
		fmt.Fprintf(out, "imported %d chores\n", res.Imported)
	}
	return err
}

func assigneeCmd(a *app, args []string, out io.Writer) error {
	switch {
	case len(args) == 2 && args[0] == "add":
		as, err := a.chores.AddAssignee(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "added assignee %d: %s\n", as.ID, as.Name)
		return nil
	case len(args) == 1 && args[0] == "list":
		list, err := a.chores.Assignees()
		if err != nil {
			return err
		}
		for _, as := range list {
			fmt.Fprintf(out, "%d\t%s\n", as.ID, as.Name)
		}
		return nil
	default:
		return errors.New("usage: chorechart assignee add <name> | assignee list")
	}
}

func digestCmd(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("digest", flag.ContinueOnError)
	send := fs.Bool("send", false, "send the digest to the configured recipients")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*send {
		d, err := a.digests.Build()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n\n%s", d.Subject, d.Body)
		return nil
	}

	d, err := a.digests.Send(ctx)
	if err != nil {
		return err
	}
	if d.Count == 0 {
		fmt.Fprintln(out, "nothing needs attention; digest not sent")
		return nil
	}
	fmt.Fprintf(out, "digest with %d chores sent to %d recipients\n", d.Count, len(a.cfg.Digest.Recipients))
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func backupCmd(ctx context.Context, a *app, args []string, out io.Writer) error {
	switch {
	case len(args) == 0:
		res, err := a.backups.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "uploaded %s (%d bytes)\n", res.Key, res.Size)
		return nil
	case len(args) == 1 && args[0] == "list":
		keys, err := a.backups.List(ctx)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintln(out, k)
		}
		return nil
	case len(args) == 3 && args[0] == "restore":
		if samePath(args[2], a.cfg.DBPath) {
			return fmt.Errorf("refusing to restore over the live database %s", a.cfg.DBPath)
		}
		if err := a.backups.Restore(ctx, args[1], args[2]); err != nil {
			return err
		}
		fmt.Fprintf(out, "restored %s to %s\n", args[1], args[2])
		return nil
	default:
		return errors.New("usage: chorechart backup [list | restore <key> <path>]")
	}
}
