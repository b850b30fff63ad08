package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/rxcomposer/config"
	"github.com/giygas/rxcomposer/data"
	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/export"
	"github.com/giygas/rxcomposer/handlers"
	"github.com/giygas/rxcomposer/health"
	"github.com/giygas/rxcomposer/interfaces"
	"github.com/giygas/rxcomposer/logging"
	"github.com/giygas/rxcomposer/medicines"
	"github.com/giygas/rxcomposer/metrics"
	"github.com/giygas/rxcomposer/scheduler"
	"github.com/giygas/rxcomposer/server"
	"github.com/giygas/rxcomposer/session"
	"github.com/giygas/rxcomposer/storage"
	"github.com/giygas/rxcomposer/suggest"
	"github.com/giygas/rxcomposer/validation"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	cfg       *config.Config
	ephemeral bool
)

var rootCmd = &cobra.Command{
	Use:           "rxcomposer",
	Short:         "Local prescription composer",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadDotEnv()

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		logging.InitLoggerWithOptions(logging.Options{
			Dir:            logDirFor(cmd),
			Level:          cfg.LogLevel,
			RetentionWeeks: cfg.LogRetentionWeeks,
			MaxFileSize:    cfg.MaxLogFileSize,
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Close()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the composer HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep records in memory only")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// logDirFor keeps the one-shot commands on the console
func logDirFor(cmd *cobra.Command) string {
	if cmd == serveCmd {
		return cfg.LogDir
	}
	return ""
}

// openStore opens the durable store, or a memory store with --ephemeral
func openStore() (interfaces.KVStore, error) {
	if ephemeral {
		logging.Info("Using an in-memory store, records will not survive a restart")
		return storage.NewMemoryStore(), nil
	}

	store, err := storage.OpenSQLite(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return store, nil
}

// newSession builds a session with its metrics observers and restores it
func newSession(ctx context.Context, store interfaces.KVStore) *session.Session {
	sess := session.New(session.Options{
		Store:      store,
		OnAutosave: metrics.Autosaved,
		OnCartChange: func(op string, entries []entities.CartEntry) {
			metrics.CartChanged(op, len(entries))
		},
	})
	sess.Load(ctx)
	metrics.CartEntries.Set(float64(sess.Cart.Len()))
	return sess
}

func newLoader() *medicines.Loader {
	return medicines.NewLoader(cfg.MedicinesFile, cfg.MedicinesURL, validation.NewDataValidator())
}

// loadReference fills a container for the one-shot commands
func loadReference(ctx context.Context) (*data.DataContainer, error) {
	dc := data.NewDataContainer()
	if err := medicines.Populate(ctx, dc, newLoader()); err != nil {
		return nil, err
	}
	return dc, nil
}

func runServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Warn("Failed to close store", "error", err)
		}
	}()

	dataContainer := data.NewDataContainer()
	dataContainer.SetServerStartTime(time.Now())

	sess := newSession(ctx, store)

	sched := scheduler.NewScheduler(dataContainer, newLoader(), sess, cfg.AutosaveInterval)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	matcher := suggest.NewMatcher(dataContainer)
	matcher.OnMatch = metrics.SuggestQuery

	handler := handlers.NewHTTPHandler(
		sess,
		matcher,
		validation.NewDataValidator(),
		health.NewHealthChecker(store, dataContainer, sess.AutosaveAge),
		export.NewPDFRenderer(cfg.PDFFontPath),
	)
	srv := server.NewServer(cfg, handler)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logging.Info("Received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Last snapshot before the store closes
	if err := sess.Autosave(shutdownCtx); err != nil {
		logging.Warn("Final autosave failed", "error", err)
	}
	return srv.Shutdown(shutdownCtx)
}
