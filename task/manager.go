package task

import (
	"errors"
	"fmt"
	"sync"

	"github.com/liamcoop/survey/internal/logger"
	"github.com/liamcoop/survey/result"
	"github.com/liamcoop/survey/rules"
)

var ErrRunNotFound = errors.New("task run not found")

// Manager starts task runs from a store and tracks the active ones by run
// UUID. All runs share one rules engine and its compiled program cache.
type Manager struct {
	store  Store
	engine *rules.Engine
	runs   map[string]*Run
	mu     sync.RWMutex
}

// NewManager creates a new manager instance
func NewManager(store Store, engine *rules.Engine) *Manager {
	return &Manager{
		store:  store,
		engine: engine,
		runs:   make(map[string]*Run),
	}
}

// Start begins a run of the stored task and positions it on the first step
func (m *Manager) Start(taskID string) (*Run, error) {
	t, err := m.store.Get(taskID)
	if err != nil {
		return nil, err
	}
	if len(t.Steps) == 0 {
		return nil, fmt.Errorf("%w: task %q has no steps", ErrStepNotFound, taskID)
	}

	run := NewRun(NewNavigator(t, m.engine))
	if err := run.BeginStep(t.Steps[0].Identifier); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.runs[run.ID()] = run
	m.mu.Unlock()

	logger.Info("task run started", "task", taskID, "run", run.ID())
	return run, nil
}

// Get retrieves an active run
func (m *Manager) Get(runID string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, exists := m.runs[runID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, nil
}

// Advance decides the next step of a run and moves to it. When the task ends
// the run is finished and removed.
func (m *Manager) Advance(runID string) (Decision, error) {
	run, err := m.Get(runID)
	if err != nil {
		return Decision{}, err
	}
	d, err := run.Next()
	if err != nil {
		return Decision{}, err
	}
	if d.Ended() {
		_, err := m.Finish(runID)
		return d, err
	}
	return d, run.BeginStep(d.NextStepIdentifier)
}

// Finish finishes a run, removes it from the active set and returns its result
func (m *Manager) Finish(runID string) (*result.TaskResult, error) {
	m.mu.Lock()
	run, exists := m.runs[runID]
	delete(m.runs, runID)
	m.mu.Unlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run.Finish(), nil
}

// Active returns the number of runs in progress
func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}
