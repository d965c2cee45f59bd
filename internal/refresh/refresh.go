// Package refresh reloads the appointment list on a cron schedule.
package refresh

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	appLog "sisvei/internal/log"
)

// Loader is the operation re-run on every tick.
type Loader interface {
	Load(ctx context.Context) error
}

// Scheduler runs Loader.Load on a standard 5-field cron spec. Overlapping
// ticks are skipped while a load is still running.
type Scheduler struct {
	cron   *cron.Cron
	loader Loader
	spec   string

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New parses spec. An empty spec yields a nil Scheduler and no error;
// every method is safe on nil.
func New(spec string, loader Loader) (*Scheduler, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	if loader == nil {
		return nil, fmt.Errorf("refresh: loader is nil")
	}

	s := &Scheduler{
		cron:   cron.New(),
		loader: loader,
		spec:   spec,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.Tick() }); err != nil {
		return nil, fmt.Errorf("refresh: invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins scheduling; ticks use a context derived from ctx.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	appLog.Info("refresh scheduler started", "schedule", s.spec)
}

// Stop halts scheduling and waits for a running load to return.
func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	appLog.Info("refresh scheduler stopped")
}

// Tick runs one reload unless another is in progress. It reports whether
// a load was attempted.
func (s *Scheduler) Tick() bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		appLog.Debug("refresh skipped; previous load still running")
		return false
	}
	s.running = true
	ctx := s.ctx
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.loader.Load(ctx); err != nil {
		appLog.Warn("scheduled refresh failed", "err", err.Error())
		return true
	}
	appLog.Debug("scheduled refresh done")
	return true
}
