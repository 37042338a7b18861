// Package health runs periodic liveness checks against the engine's
// collaborators and exposes the results over HTTP.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status is the outcome of a single check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
	Latency   string    `json:"latency"`
}

// Checker probes one dependency.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Config holds manager settings.
type Config struct {
	CheckInterval time.Duration
	Timeout       time.Duration
}

// Manager runs registered checkers on an interval and caches their results.
type Manager struct {
	cfg      Config
	logger   *zap.Logger
	mu       sync.RWMutex
	checkers []Checker
	statuses map[string]Status
	stopCh   chan struct{}
	started  bool
}

// NewManager creates a health manager.
func NewManager(cfg Config, logger *zap.Logger) *Manager {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = 30 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Manager{
		cfg:      cfg,
		logger:   logger,
		statuses: make(map[string]Status),
		stopCh:   make(chan struct{}),
	}
}

// Register adds a checker. Safe to call before or after Start.
func (m *Manager) Register(c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, c)
}

// Start begins the periodic check loop. Returns immediately.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	go func() {
		m.runChecks(ctx)
		ticker := time.NewTicker(m.cfg.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.runChecks(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the check loop.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}
	m.started = false
	close(m.stopCh)
}

// Statuses returns a snapshot of the latest check results.
func (m *Manager) Statuses() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Status, 0, len(m.statuses))
	for _, s := range m.statuses {
		out = append(out, s)
	}
	return out
}

// Healthy reports whether every checker passed its last run.
func (m *Manager) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

func (m *Manager) runChecks(ctx context.Context) {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	m.mu.RUnlock()

	for _, c := range checkers {
		start := time.Now()
		checkCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
		err := c.Check(checkCtx)
		cancel()

		status := Status{
			Name:      c.Name(),
			Healthy:   err == nil,
			CheckedAt: time.Now(),
			Latency:   time.Since(start).String(),
		}
		if err != nil {
			status.Error = err.Error()
			m.logger.Warn("Health check failed", zap.String("check", c.Name()), zap.Error(err))
		}

		m.mu.Lock()
		m.statuses[c.Name()] = status
		m.mu.Unlock()
	}
}
