// Package autoscan periodically rescans open documents while enabled.
package autoscan

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrAlreadyRunning = errors.New("auto-scan scheduler is already running")
	ErrNotRunning     = errors.New("auto-scan scheduler is not running")
)

// Scanner rescans every open document. auto is false for the scan issued
// when the scheduler starts, which counts as a user scan.
type Scanner interface {
	ScanAll(ctx context.Context, auto bool)
}

// Scheduler drives a Scanner on a fixed interval
type Scheduler struct {
	interval time.Duration
	scanner  Scanner
	logger   *logrus.Entry

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a stopped scheduler
func NewScheduler(interval time.Duration, scanner Scanner, logger *logrus.Entry) *Scheduler {
	return &Scheduler{
		interval: interval,
		scanner:  scanner,
		logger:   logger.WithField("component", "autoscan"),
	}
}

// Start runs one immediate scan, then an auto-scan every interval.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.WithField("interval", s.interval).Info("Auto-scan started")
	return nil
}

// Stop halts the scheduler and waits for an in-flight scan to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Auto-scan stopped")
	return nil
}

// Running reports whether the scheduler is active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	s.scanner.ScanAll(ctx, false)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scanner.ScanAll(ctx, true)
		}
	}
}
