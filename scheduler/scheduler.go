// Package scheduler runs the background jobs of the composer: the initial
// reference load, the periodic session autosave, log retention cleanup and
// an autosave staleness monitor.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/giygas/rxcomposer/interfaces"
	"github.com/giygas/rxcomposer/logging"
	"github.com/giygas/rxcomposer/medicines"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// StaleAfter is how old the last autosave may get before the monitor warns.
const StaleAfter = 5 * time.Minute

// Autosaver is the session side of the autosave tick.
type Autosaver interface {
	Autosave(ctx context.Context) error
	AutosaveAge() time.Duration
}

// Scheduler handles the background jobs using dependency injection
type Scheduler struct {
	reference interfaces.ReferenceStore
	loader    interfaces.Loader
	session   Autosaver
	interval  time.Duration
	scheduler *gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler creates a new scheduler instance with injected dependencies.
// The autosave job runs every interval.
func NewScheduler(reference interfaces.ReferenceStore, loader interfaces.Loader, session Autosaver, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := gocron.NewScheduler(time.Local)
	s.SingletonModeAll()
	return &Scheduler{
		reference: reference,
		loader:    loader,
		session:   session,
		interval:  interval,
		scheduler: s,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start loads the reference set and schedules the recurring jobs
func (s *Scheduler) Start() error {
	// Initial load
	if err := medicines.Populate(s.ctx, s.reference, s.loader); err != nil {
		logging.Error("Failed to perform initial reference load", "error", err)
		return fmt.Errorf("initial reference load failed: %w", err)
	}

	if _, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.autosave); err != nil {
		logging.Error("Failed to schedule autosave", "error", err)
		return fmt.Errorf("failed to schedule autosave: %w", err)
	}

	if _, err := s.scheduler.Every(1).Day().At("03:00").Do(s.cleanupLogs); err != nil {
		logging.Error("Failed to schedule log cleanup", "error", err)
		return fmt.Errorf("failed to schedule log cleanup: %w", err)
	}

	if _, err := s.scheduler.Every(1).Minute().WaitForSchedule().Do(s.monitor); err != nil {
		logging.Error("Failed to schedule autosave monitor", "error", err)
		return fmt.Errorf("failed to schedule autosave monitor: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Scheduler started", "autosave_interval", s.interval.String())

	return nil
}

// Stop stops the scheduler and cancels a running autosave
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}

func (s *Scheduler) autosave() {
	ctx, cancel := context.WithTimeout(s.ctx, s.interval)
	defer cancel()

	if err := s.session.Autosave(ctx); err != nil {
		logging.Debug("Autosave tick failed", "error", err)
	}
}

func (s *Scheduler) cleanupLogs() {
	if err := logging.CleanupOldLogs(); err != nil {
		logging.Warn("Failed to clean up old logs", "error", err)
	}
}

// monitor warns when the autosave record stops advancing
func (s *Scheduler) monitor() {
	if age := s.session.AutosaveAge(); age > StaleAfter {
		logging.Warn("Autosave has not succeeded recently", "age", age.Round(time.Second).String())
	}
}
