// Package startup brings service dependencies up in declaration order,
// honoring DependsOn edges, and tears them down in reverse.
package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
)

type Dependency interface {
	Name() string
	DependsOn() []string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Func adapts plain functions into a Dependency. Nil StartFunc or StopFunc
// are treated as no-ops.
type Func struct {
	DependencyName string
	Requires       []string
	StartFunc      func(ctx context.Context) error
	StopFunc       func(ctx context.Context) error
}

func (f Func) Name() string        { return f.DependencyName }
func (f Func) DependsOn() []string { return f.Requires }

func (f Func) Start(ctx context.Context) error {
	if f.StartFunc == nil {
		return nil
	}
	return f.StartFunc(ctx)
}

func (f Func) Stop(ctx context.Context) error {
	if f.StopFunc == nil {
		return nil
	}
	return f.StopFunc(ctx)
}

type status int

const (
	statusPending status = iota
	statusStarted
	statusStopped
)

// Manager starts dependencies with fibonacci backoff between whole-graph
// attempts. Dependencies already started stay started across retries.
type Manager struct {
	order       []string
	deps        map[string]Dependency
	statuses    map[string]status
	maxAttempts int
	logger      ectologger.Logger
}

func NewManager(logger ectologger.Logger, maxAttempts int) *Manager {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Manager{
		deps:        make(map[string]Dependency),
		statuses:    make(map[string]status),
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

func (m *Manager) Add(dep Dependency) {
	if _, exists := m.deps[dep.Name()]; !exists {
		m.order = append(m.order, dep.Name())
	}
	m.deps[dep.Name()] = dep
}

func (m *Manager) Start(ctx context.Context) error {
	var lastErr error

	a, b := 1, 1
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		m.logger.WithField("attempt", attempt).Infof("Beginning startup attempt %d", attempt)

		lastErr = nil
		for _, name := range m.order {
			if err := m.startDependency(ctx, name); err != nil {
				lastErr = err
				break
			}
		}

		if lastErr == nil {
			return nil
		}

		if attempt == m.maxAttempts {
			break
		}

		m.logger.Infof("Retrying in %d seconds (attempt %d/%d)", a, attempt, m.maxAttempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(a) * time.Second):
		}
		a, b = b, a+b
	}

	return fmt.Errorf("startup failed after %d attempts: %w", m.maxAttempts, lastErr)
}

func (m *Manager) startDependency(ctx context.Context, name string) error {
	dep, ok := m.deps[name]
	if !ok {
		return fmt.Errorf("unknown startup dependency %q", name)
	}
	if m.statuses[name] == statusStarted {
		return nil
	}

	for _, required := range dep.DependsOn() {
		if err := m.startDependency(ctx, required); err != nil {
			return err
		}
	}

	m.logger.WithField("dependency", name).Infof("Starting dependency '%s'", name)
	if err := dep.Start(ctx); err != nil {
		m.logger.WithError(err).WithField("dependency", name).Errorf("Failed to start dependency '%s'", name)
		return err
	}

	m.statuses[name] = statusStarted
	return nil
}

// Stop tears down started dependencies in reverse declaration order. It
// keeps going past individual failures and returns the first error seen.
func (m *Manager) Stop(ctx context.Context) error {
	var firstErr error

	for i := len(m.order) - 1; i >= 0; i-- {
		name := m.order[i]
		if m.statuses[name] != statusStarted {
			continue
		}

		m.logger.WithField("dependency", name).Infof("Stopping dependency '%s'", name)
		if err := m.deps[name].Stop(ctx); err != nil {
			m.logger.WithError(err).WithField("dependency", name).Errorf("Failed to stop dependency '%s'", name)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		m.statuses[name] = statusStopped
	}

	return firstErr
}
