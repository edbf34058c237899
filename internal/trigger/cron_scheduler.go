// Package trigger fires workflow runs on a schedule. It has no analogue in
// the original petriish source (spec.md has no trigger concept at all) but
// follows the teacher's CronScheduler shape, re-themed from DB-loaded
// trigger rows to config-declared cron-expression-to-pattern-file mappings.
package trigger

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/smilemakc/patterex/internal/config"
	"github.com/smilemakc/patterex/internal/infrastructure/logger"
	"github.com/smilemakc/patterex/internal/observer"
	"github.com/smilemakc/patterex/pattern"
	"github.com/smilemakc/patterex/reactor"
)

// CronScheduler runs the patterns named in config.TriggerConfig on their
// configured schedules, each run going through the same reactor.Run /
// observer.Manager path a submitted HTTP request does.
type CronScheduler struct {
	cron    *cron.Cron
	mgr     *observer.Manager
	logger  *logger.Logger
	entries map[string]cron.EntryID
	mu      sync.RWMutex
}

// NewCronScheduler builds a scheduler with second-precision, UTC-anchored
// cron evaluation, exactly as the teacher's cron_scheduler.go configures it.
func NewCronScheduler(mgr *observer.Manager, log *logger.Logger) *CronScheduler {
	return &CronScheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		mgr:     mgr,
		logger:  log,
		entries: make(map[string]cron.EntryID),
	}
}

// Start registers every entry in cfg and starts the underlying cron
// dispatcher. A malformed cron expression for one entry is logged and
// skipped rather than aborting the whole scheduler, matching the teacher's
// Start loop (which continues past a single bad trigger).
func (s *CronScheduler) Start(cfg config.TriggerConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range cfg.Triggers {
		if err := s.addLocked(entry); err != nil {
			s.logger.Error("failed to add trigger", "name", entry.Name, "error", err)
		}
	}

	s.cron.Start()
}

// Stop halts the cron dispatcher, waiting for any in-flight job to finish.
func (s *CronScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *CronScheduler) addLocked(entry config.TriggerEntry) error {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(entry.Schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", entry.Schedule, err)
	}

	job := cron.FuncJob(func() {
		s.fire(entry)
	})

	entryID := s.cron.Schedule(schedule, job)
	s.entries[entry.Name] = entryID
	return nil
}

// fire loads entry's pattern document from disk and runs it to completion.
// Each tick gets its own execution ID, the same as a fresh POST /workflows.
func (s *CronScheduler) fire(entry config.TriggerEntry) {
	executionID := uuid.New().String()

	data, err := os.ReadFile(entry.Path)
	if err != nil {
		s.logger.Error("trigger failed to read pattern document", "name", entry.Name, "path", entry.Path, "error", err)
		return
	}

	p, err := pattern.Deserialize(data)
	if err != nil {
		s.logger.Error("trigger failed to deserialize pattern document", "name", entry.Name, "path", entry.Path, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 24*time.Hour)
	defer cancel()

	execLogger := s.logger.WithExecution(executionID).With("name", entry.Name)
	execLogger.Info("trigger firing")
	status, err := reactor.Run(ctx, p, executionID, s.mgr)
	if err != nil {
		execLogger.Error("trigger execution aborted", "error", err)
		return
	}
	execLogger.Info("trigger completed", "status", status.String())
}
