package task

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/liamcoop/survey/result"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	store := NewInMemoryStore()
	if err := store.Add(loadIntake(t)); err != nil {
		t.Fatal(err)
	}
	return NewManager(store, newEngine(t))
}

// TestRunWalkthrough verifies a run from the first step to completion
func TestRunWalkthrough(t *testing.T) {
	m := newManager(t)
	run, err := m.Start("intake")
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if run.Current() != "intro" {
		t.Fatalf("Current() = %q, want intro", run.Current())
	}
	if m.Active() != 1 {
		t.Errorf("Active() = %d, want 1", m.Active())
	}

	if err := run.Record(result.NewResultBase("intro")); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	advance := func(want string) {
		t.Helper()
		d, err := m.Advance(run.ID())
		if err != nil {
			t.Fatalf("Advance() failed: %v", err)
		}
		if d.NextStepIdentifier != want {
			t.Fatalf("Advance() = %q, want %q", d.NextStepIdentifier, want)
		}
	}

	advance("age")
	if err := run.RecordAnswer(intAnswer("age", 9)); err != nil {
		t.Fatalf("RecordAnswer() failed: %v", err)
	}
	advance("minor")
	advance("done")
	advance("")

	if !run.Finished() {
		t.Error("run should be finished after the last step")
	}
	if m.Active() != 0 {
		t.Errorf("Active() = %d, want 0", m.Active())
	}

	tr := run.Snapshot()
	if tr.SchemaInfo == nil || tr.SchemaInfo.Identifier != "intake" {
		t.Errorf("SchemaInfo = %+v, want intake", tr.SchemaInfo)
	}
	if tr.EndDate.Before(tr.StartDate) {
		t.Error("EndDate should not precede StartDate")
	}
	answer, ok := tr.FindAnswerResult("age")
	if !ok {
		t.Fatal("answer for age not recorded")
	}
	if v, _ := answer.Value.IntValue(); v != 9 {
		t.Errorf("age answer = %d, want 9", v)
	}
	if len(tr.StepHistory) != 2 {
		t.Errorf("len(StepHistory) = %d, want 2", len(tr.StepHistory))
	}
}

// TestRunBackNavigation verifies returning to a step discards it and the
// steps recorded after it
func TestRunBackNavigation(t *testing.T) {
	m := newManager(t)
	run, err := m.Start("intake")
	if err != nil {
		t.Fatal(err)
	}

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(run.Record(result.NewResultBase("intro")))
	must(run.BeginStep("age"))
	must(run.RecordAnswer(intAnswer("age", 9)))
	must(run.BeginStep("minor"))
	must(run.Record(result.NewResultBase("minor")))

	must(run.BeginStep("age"))
	tr := run.Snapshot()
	if len(tr.StepHistory) != 2 || tr.StepHistory[0].Base().Identifier != "intro" {
		t.Fatalf("StepHistory after going back = %d entries, want intro and a fresh age", len(tr.StepHistory))
	}
	if _, ok := tr.FindAnswerResult("age"); ok {
		t.Error("going back should discard the earlier age answer")
	}

	must(run.RecordAnswer(intAnswer("age", 50)))
	d, err := run.Next()
	must(err)
	if d.NextStepIdentifier != "adult" {
		t.Errorf("Next() = %q, want adult", d.NextStepIdentifier)
	}
}

// TestBeginStepCreatesCollection verifies a form step's collection result
// starts when the step begins, not at its first answer
func TestBeginStepCreatesCollection(t *testing.T) {
	run := NewRun(NewNavigator(loadIntake(t), newEngine(t)))

	if err := run.BeginStep("intro"); err != nil {
		t.Fatal(err)
	}
	if len(run.Snapshot().StepHistory) != 0 {
		t.Error("an instruction step should not start with a result")
	}

	if err := run.BeginStep("age"); err != nil {
		t.Fatal(err)
	}
	began := time.Now()
	r, ok := run.Snapshot().FindResult("age")
	if !ok {
		t.Fatal("BeginStep() should create the age collection")
	}
	collection, ok := r.(*result.CollectionResult)
	if !ok {
		t.Fatalf("step result = %T, want *result.CollectionResult", r)
	}

	time.Sleep(time.Millisecond)
	if err := run.RecordAnswer(intAnswer("age", 30)); err != nil {
		t.Fatal(err)
	}
	r, _ = run.Snapshot().FindResult("age")
	recorded := r.(*result.CollectionResult)
	if !recorded.StartDate.Equal(collection.StartDate) || recorded.StartDate.After(began) {
		t.Errorf("StartDate = %v, want the step start %v", recorded.StartDate, collection.StartDate)
	}
	if !recorded.EndDate.After(recorded.StartDate) {
		t.Error("EndDate should move with the recorded answer")
	}
	if len(collection.InputResults) != 0 {
		t.Error("recording an answer must not modify an earlier snapshot")
	}
}

// TestSnapshotWhileRecording verifies snapshots can be read while answers
// are recorded; run with -race
func TestSnapshotWhileRecording(t *testing.T) {
	run := NewRun(NewNavigator(loadIntake(t), newEngine(t)))
	if err := run.BeginStep("age"); err != nil {
		t.Fatal(err)
	}
	if err := run.RecordAnswer(intAnswer("age", 1)); err != nil {
		t.Fatal(err)
	}
	snap := run.Snapshot()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if err := run.RecordAnswer(intAnswer("age", int64(i))); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			answer, ok := snap.FindAnswerResult("age")
			if !ok {
				t.Error("snapshot lost the age answer")
				return
			}
			if v, _ := answer.Value.IntValue(); v != 1 {
				t.Errorf("snapshot answer = %d, want 1", v)
				return
			}
			r, _ := snap.FindResult("age")
			_ = r.Base().EndDate
		}
	}()
	wg.Wait()
}

// TestRunRecordErrors verifies results are only recorded for the step in
// progress of an unfinished run
func TestRunRecordErrors(t *testing.T) {
	run := NewRun(NewNavigator(loadIntake(t), newEngine(t)))

	if err := run.Record(result.NewResultBase("intro")); !errors.Is(err, ErrNoCurrentStep) {
		t.Errorf("Record() before BeginStep() error = %v, want ErrNoCurrentStep", err)
	}
	if _, err := run.Next(); !errors.Is(err, ErrNoCurrentStep) {
		t.Errorf("Next() before BeginStep() error = %v, want ErrNoCurrentStep", err)
	}
	if err := run.BeginStep("nowhere"); !errors.Is(err, ErrStepNotFound) {
		t.Errorf("BeginStep(unknown) error = %v, want ErrStepNotFound", err)
	}

	if err := run.BeginStep("age"); err != nil {
		t.Fatal(err)
	}
	if err := run.Record(result.NewResultBase("intro")); err == nil {
		t.Error("Record() of another step's result should fail")
	}
	if err := run.RecordAnswer(intAnswer("height", 180)); err == nil {
		t.Error("RecordAnswer() for a field the step lacks should fail")
	}

	first := run.Finish()
	if err := run.BeginStep("age"); !errors.Is(err, ErrRunFinished) {
		t.Errorf("BeginStep() after Finish() error = %v, want ErrRunFinished", err)
	}
	if err := run.Record(result.NewResultBase("age")); !errors.Is(err, ErrRunFinished) {
		t.Errorf("Record() after Finish() error = %v, want ErrRunFinished", err)
	}
	if again := run.Finish(); !again.EndDate.Equal(first.EndDate) {
		t.Error("second Finish() should not restamp the end date")
	}
}

// TestManagerErrors verifies unknown tasks and runs
func TestManagerErrors(t *testing.T) {
	m := newManager(t)

	if _, err := m.Start("missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Start(missing) error = %v, want ErrTaskNotFound", err)
	}
	if _, err := m.Get("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrRunNotFound", err)
	}
	if _, err := m.Finish("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Finish(missing) error = %v, want ErrRunNotFound", err)
	}

	run, err := m.Start("intake")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Finish(run.ID()); err != nil {
		t.Fatalf("Finish() failed: %v", err)
	}
	if _, err := m.Advance(run.ID()); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Advance() after Finish() error = %v, want ErrRunNotFound", err)
	}
}

// TestManagerConcurrentRuns verifies independent runs progress concurrently
// against one engine
func TestManagerConcurrentRuns(t *testing.T) {
	m := newManager(t)
	const runs = 20

	var wg sync.WaitGroup
	errs := make(chan error, runs)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(age int64) {
			defer wg.Done()
			run, err := m.Start("intake")
			if err != nil {
				errs <- err
				return
			}
			if _, err := m.Advance(run.ID()); err != nil {
				errs <- err
				return
			}
			if err := run.RecordAnswer(intAnswer("age", age)); err != nil {
				errs <- err
				return
			}
			if _, err := m.Advance(run.ID()); err != nil {
				errs <- err
				return
			}
			if _, err := m.Finish(run.ID()); err != nil {
				errs <- err
			}
		}(int64(i * 5))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	if m.Active() != 0 {
		t.Errorf("Active() = %d, want 0", m.Active())
	}
}
