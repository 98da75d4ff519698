// Package scheduler drives the daily draw. A cron tick shortly after
// midnight UTC draws the day that just ended; a startup catch-up covers
// ticks missed while the process was down.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/exp/slog"

	"github.com/retailrewards/rewards-backend/internal/models"
	"github.com/retailrewards/rewards-backend/internal/services"
)

const tickTimeout = 5 * time.Minute

// Status reports the scheduler's recent and upcoming activity
type Status struct {
	Running      bool       `json:"running"`
	CronSpec     string     `json:"cronSpec"`
	LastRunAt    *time.Time `json:"lastRunAt,omitempty"`
	LastDrawDate string     `json:"lastDrawDate,omitempty"`
	LastError    string     `json:"lastError,omitempty"`
	NextRunAt    *time.Time `json:"nextRunAt,omitempty"`
}

// Scheduler runs the draw on a cron cadence
type Scheduler struct {
	drawService services.DrawService
	cronSpec    string
	cron        *cron.Cron
	entryID     cron.EntryID

	mu           sync.Mutex
	running      bool
	lastRunAt    *time.Time
	lastDrawDate string
	lastErr      error
}

// New creates a Scheduler on the given cron spec, evaluated in UTC
func New(drawService services.DrawService, cronSpec string) (*Scheduler, error) {
	s := &Scheduler{
		drawService: drawService,
		cronSpec:    cronSpec,
		cron:        cron.New(cron.WithLocation(time.UTC)),
	}
	entryID, err := s.cron.AddFunc(cronSpec, s.tick)
	if err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", cronSpec, err)
	}
	s.entryID = entryID
	return s, nil
}

// Start begins ticking. Call RunPending first to catch up on missed days.
func (s *Scheduler) Start() {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	s.cron.Start()
	slog.Info("Draw scheduler started", "cronSpec", s.cronSpec)
}

// Stop halts ticking and waits for an in-flight tick to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	slog.Info("Draw scheduler stopped")
}

// RunPending runs the draw for the most recently ended day. The draw
// service makes this idempotent, so calling it on every startup is safe
// whether or not the midnight tick was missed.
func (s *Scheduler) RunPending(ctx context.Context) error {
	return s.runFor(ctx, yesterday(time.Now().UTC()))
}

// TriggerDraw runs the draw for an explicit date, outside the cadence
func (s *Scheduler) TriggerDraw(ctx context.Context, date string) (*models.Draw, error) {
	return s.drawService.RunDrawForDate(ctx, date)
}

// Status reports current scheduler state
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := Status{
		Running:      s.running,
		CronSpec:     s.cronSpec,
		LastRunAt:    s.lastRunAt,
		LastDrawDate: s.lastDrawDate,
	}
	if s.lastErr != nil {
		status.LastError = s.lastErr.Error()
	}
	if s.running {
		next := s.cron.Entry(s.entryID).Next
		if !next.IsZero() {
			status.NextRunAt = &next
		}
	}
	return status
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()
	if err := s.runFor(ctx, yesterday(time.Now().UTC())); err != nil {
		slog.Error("Scheduled draw failed", "error", err)
	}
}

func (s *Scheduler) runFor(ctx context.Context, date string) error {
	draw, err := s.drawService.RunDrawForDate(ctx, date)

	now := time.Now().UTC()
	s.mu.Lock()
	s.lastRunAt = &now
	s.lastDrawDate = date
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		return err
	}
	slog.Info("Scheduled draw finished", "date", date, "status", draw.Status)
	return nil
}

// yesterday formats the day that ended before the given instant
func yesterday(now time.Time) string {
	return now.AddDate(0, 0, -1).Format(models.DrawDateLayout)
}
