package task

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// TestStoreInterface verifies at compile time that InMemoryStore implements Store
func TestStoreInterface(t *testing.T) {
	var _ Store = (*InMemoryStore)(nil)
}

// TestInMemoryStoreCRUD verifies add, get, update and delete
func TestInMemoryStoreCRUD(t *testing.T) {
	store := NewInMemoryStore()
	task := &Task{Identifier: "a", Steps: []*Step{step("s", StepInstruction)}}

	if err := store.Add(task); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if err := store.Add(task); !errors.Is(err, ErrTaskExists) {
		t.Errorf("duplicate Add() error = %v, want ErrTaskExists", err)
	}

	got, err := store.Get("a")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got != task {
		t.Errorf("Get() returned a different task")
	}

	updated := &Task{Identifier: "a", Steps: []*Step{step("s", StepInstruction), step("t", StepCompletion)}}
	if err := store.Update(updated); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	got, _ = store.Get("a")
	if len(got.Steps) != 2 {
		t.Errorf("Update() was not applied, got %d steps", len(got.Steps))
	}
	if err := store.Update(&Task{Identifier: "b"}); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrTaskNotFound", err)
	}

	if err := store.Delete("a"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.Get("a"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Get() after Delete() error = %v, want ErrTaskNotFound", err)
	}
	if err := store.Delete("a"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("second Delete() error = %v, want ErrTaskNotFound", err)
	}
}

// TestInMemoryStoreListOrdered verifies List is sorted by identifier
func TestInMemoryStoreListOrdered(t *testing.T) {
	store := NewInMemoryStore()
	for _, id := range []string{"c", "a", "b"} {
		if err := store.Add(&Task{Identifier: id}); err != nil {
			t.Fatal(err)
		}
	}

	tasks, err := store.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	var ids []string
	for _, task := range tasks {
		ids = append(ids, task.Identifier)
	}
	if fmt.Sprint(ids) != "[a b c]" {
		t.Errorf("List() order = %v, want [a b c]", ids)
	}
}

// TestInMemoryStoreConcurrentAccess verifies the store is safe for
// concurrent readers and writers
func TestInMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewInMemoryStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Add(&Task{Identifier: fmt.Sprintf("task-%d", i)})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = store.List()
		}()
	}
	wg.Wait()

	tasks, _ := store.List()
	if len(tasks) != 50 {
		t.Errorf("len(List()) = %d, want 50", len(tasks))
	}
}

// TestLoadFiles verifies loading several documents and the duplicate check
func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "intake.yaml")
	second := filepath.Join(dir, "exit.json")
	if err := os.WriteFile(first, []byte(intakeYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte(`{"identifier":"exit","steps":[{"identifier":"bye","type":"completion"}]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewInMemoryStore()
	if err := store.LoadFiles(first, second); err != nil {
		t.Fatalf("LoadFiles() failed: %v", err)
	}
	tasks, _ := store.List()
	if len(tasks) != 2 {
		t.Errorf("len(List()) = %d, want 2", len(tasks))
	}

	if err := store.LoadFiles(first); !errors.Is(err, ErrTaskExists) {
		t.Errorf("reloading error = %v, want ErrTaskExists", err)
	}
}
