package services

import (
	"context"
	"sync"
	"time"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driving"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler periodically rebuilds the index from the document store.
// A rebuild starts from an empty snapshot, so it also prunes entries for
// documents deleted behind the indexer's back.
type Scheduler struct {
	indexer  driving.IndexService
	interval time.Duration

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	done     chan struct{}
	lastRun  time.Time
	lastErr  error
	onReport func(domain.IndexReport, error)
}

// NewScheduler creates a scheduler. A non-positive interval disables it.
func NewScheduler(indexer driving.IndexService, interval time.Duration) *Scheduler {
	return &Scheduler{
		indexer:  indexer,
		interval: interval,
	}
}

// OnReport registers fn to receive the outcome of each scheduled rebuild.
func (s *Scheduler) OnReport(fn func(domain.IndexReport, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReport = fn
}

// Start runs the rebuild loop. It blocks until the context is cancelled
// or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		logger.Debug("scheduler: periodic rebuild disabled")
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	stopCh, done := s.stopCh, s.done
	s.mu.Unlock()

	defer close(done)
	logger.Info("scheduler: rebuilding index every %s", s.interval)
	return s.run(ctx, stopCh)
}

// Stop gracefully shuts down the scheduler, waiting for a rebuild in
// progress to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	<-done
	return nil
}

// LastRun returns when the last scheduled rebuild finished and its error.
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.rebuild(ctx)
		}
	}
}

func (s *Scheduler) rebuild(ctx context.Context) {
	report, err := s.indexer.Rebuild(ctx)
	if err != nil {
		logger.Error("scheduler: rebuild failed: %v", err)
	} else {
		logger.Info("scheduler: rebuilt index generation %d (%d documents)", report.Generation, report.Indexed)
	}

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastErr = err
	fn := s.onReport
	s.mu.Unlock()

	if fn != nil {
		fn(report, err)
	}
}
