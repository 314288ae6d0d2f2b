package watch

import (
	"context"
	"errors"
	"sync"
)

// ErrAlreadyRunning is returned by Manager.Start when a watch loop is
// already active.
var ErrAlreadyRunning = errors.New("watcher is already running")

// Manager owns the lifecycle of one watch loop: at most one loop runs
// at a time, Stop tears it down and waits for it to finish, and a
// stopped manager can be started again.
type Manager struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	loopErr error
}

// NewManager creates an idle lifecycle manager.
func NewManager() *Manager {
	return &Manager{}
}

// Start subscribes to the record directory and launches the event loop
// in the background. Subscription failures are returned synchronously
// and leave the manager idle; a second Start while the loop is active
// returns [ErrAlreadyRunning] without disturbing it.
func (m *Manager) Start(ctx context.Context, opts Options, regenFn RegenFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done != nil {
		return ErrAlreadyRunning
	}

	loop, err := NewLoop(opts)
	if err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	m.cancel = cancel
	m.done = done
	m.loopErr = nil

	go func() {
		defer close(done)

		err := loop.Run(loopCtx, regenFn)

		m.mu.Lock()
		m.loopErr = err
		m.mu.Unlock()
	}()

	return nil
}

// Stop cancels the running loop and blocks until it has fully torn
// down. Stopping an idle manager is a no-op.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// Running reports whether a watch loop is currently active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.done != nil
}

// Wait blocks until the running loop exits on its own (signal or
// context cancellation) and returns its error. It returns nil at once
// when the manager is idle.
func (m *Manager) Wait() error {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()

	if done == nil {
		return nil
	}

	<-done

	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.loopErr

	// The loop already exited on its own; release its context.
	if m.cancel != nil {
		m.cancel()
	}

	m.cancel = nil
	m.done = nil

	return err
}
