package task

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/liamcoop/survey/internal/logger"
	"sigs.k8s.io/yaml"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTaskExists   = errors.New("task already exists")
)

// Store manages decoded tasks by identifier
type Store interface {
	// Add a new task
	Add(t *Task) error

	// Get a task by identifier
	Get(identifier string) (*Task, error)

	// List all tasks, ordered by identifier
	List() ([]*Task, error)

	// Update replaces an existing task
	Update(t *Task) error

	// Delete a task
	Delete(identifier string) error
}

// InMemoryStore implements Store using an in-memory map
// Thread-safe with RWMutex
type InMemoryStore struct {
	tasks map[string]*Task
	mu    sync.RWMutex
}

// NewInMemoryStore creates a new in-memory task store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tasks: make(map[string]*Task),
	}
}

// Add adds a new task to the store, enforcing unique identifiers
func (s *InMemoryStore) Add(t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[t.Identifier]; exists {
		return fmt.Errorf("%w: %s", ErrTaskExists, t.Identifier)
	}
	s.tasks[t.Identifier] = t
	return nil
}

// Get retrieves a task by identifier
func (s *InMemoryStore) Get(identifier string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.tasks[identifier]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, identifier)
	}
	return t, nil
}

// List returns every task ordered by identifier
func (s *InMemoryStore) List() ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out, nil
}

// Update replaces an existing task
func (s *InMemoryStore) Update(t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[t.Identifier]; !exists {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, t.Identifier)
	}
	s.tasks[t.Identifier] = t
	return nil
}

// Delete removes a task from the store
func (s *InMemoryStore) Delete(identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[identifier]; !exists {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, identifier)
	}
	delete(s.tasks, identifier)
	return nil
}

// LoadDocument decodes and validates a task document. JSON and YAML are
// both accepted; YAML is converted to JSON before decoding. YAML follows 1.1
// scalar rules, so unquoted yes, no, on and off are booleans: quote them
// where a string is meant, for example in a string choice list.
func LoadDocument(data []byte) (*Task, error) {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		logger.DecodeFailure("task document rejected", "error", err)
		return nil, fmt.Errorf("failed to parse task document: %w", err)
	}
	t, err := DecodeTask(jsonData)
	if err != nil {
		logger.DecodeFailure("task document rejected", "error", err)
		return nil, err
	}
	if err := Validate(t); err != nil {
		logger.DecodeFailure("task document invalid", "task", t.Identifier, "error", err)
		return nil, err
	}
	logger.Debug("task loaded", "task", t.Identifier, "steps", len(t.Steps))
	return t, nil
}

// LoadFile reads and loads a task document from path
func LoadFile(path string) (*Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}
	t, err := LoadDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadFiles loads each file into the store. The first failure stops loading.
func (s *InMemoryStore) LoadFiles(paths ...string) error {
	for _, path := range paths {
		t, err := LoadFile(path)
		if err != nil {
			return err
		}
		if err := s.Add(t); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}
