package task

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/liamcoop/survey/internal/logger"
	"github.com/liamcoop/survey/result"
)

var (
	ErrRunFinished   = errors.New("task run is finished")
	ErrNoCurrentStep = errors.New("no step in progress")
)

// Run is one execution of a task. It owns the task result and serializes
// access to it, so multiple goroutines may drive and observe the same run.
type Run struct {
	navigator *Navigator
	result    *result.TaskResult
	current   string
	finished  bool
	mu        sync.RWMutex
}

// NewRun starts a run of the navigator's task.
func NewRun(navigator *Navigator) *Run {
	t := navigator.Task()
	tr := result.NewTaskResult(t.Identifier)
	if t.SchemaInfo != nil {
		info := *t.SchemaInfo
		tr.SchemaInfo = &info
	}
	return &Run{navigator: navigator, result: tr}
}

// ID is the task run UUID.
func (r *Run) ID() string {
	return r.result.TaskRunUUID.String()
}

// Current returns the step in progress.
func (r *Run) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// BeginStep makes identifier the step in progress. Returning to a step that
// was already completed discards its result and everything recorded after it.
// A form step starts with an empty collection result.
func (r *Run) BeginStep(identifier string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finished {
		return ErrRunFinished
	}
	step, ok := r.navigator.Task().Step(identifier)
	if !ok {
		return fmt.Errorf("%w: %s", ErrStepNotFound, identifier)
	}
	if removed := r.result.RemoveStepHistory(identifier); len(removed) > 0 {
		logger.Debug("step history rewound", "step", identifier, "removed", len(removed))
	}
	if step.Type == StepForm {
		r.result.AppendStepHistory(result.NewCollectionResult(identifier))
	}
	r.current = identifier
	return nil
}

// Record stores the result of the step in progress.
func (r *Run) Record(stepResult result.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkCurrent(); err != nil {
		return err
	}
	if id := stepResult.Base().Identifier; id != r.current {
		return fmt.Errorf("result %q does not belong to step %q", id, r.current)
	}
	stepResult.Base().EndDate = time.Now()
	r.result.AppendStepHistory(stepResult)
	return nil
}

// RecordAnswer adds an answer to the collection result of the step in
// progress. The collection is replaced rather than modified, so snapshots
// taken earlier never observe the change.
func (r *Run) RecordAnswer(answer *result.AnswerResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkCurrent(); err != nil {
		return err
	}
	step, _ := r.navigator.Task().Step(r.current)
	if _, ok := step.Field(answer.Identifier); !ok {
		return fmt.Errorf("step %q has no input field %q", r.current, answer.Identifier)
	}

	var next *result.CollectionResult
	if existing, ok := r.result.FindResult(r.current); ok {
		if collection, ok := existing.(*result.CollectionResult); ok {
			cp := *collection
			cp.InputResults = append([]result.Result(nil), collection.InputResults...)
			next = &cp
		}
	}
	if next == nil {
		next = result.NewCollectionResult(r.current)
	}
	next.AppendInputResults(answer)
	next.EndDate = time.Now()
	r.replaceStepResult(next)
	return nil
}

// replaceStepResult swaps in the result for its step, keeping the step's
// position in the history.
func (r *Run) replaceStepResult(stepResult result.Result) {
	id := stepResult.Base().Identifier
	for i, existing := range r.result.StepHistory {
		if existing.Base().Identifier == id {
			r.result.StepHistory[i] = stepResult
			return
		}
	}
	r.result.AppendStepHistory(stepResult)
}

func (r *Run) checkCurrent() error {
	if r.finished {
		return ErrRunFinished
	}
	if r.current == "" {
		return ErrNoCurrentStep
	}
	return nil
}

// Next decides the step after the one in progress.
func (r *Run) Next() (Decision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.checkCurrent(); err != nil {
		return Decision{}, err
	}
	return r.navigator.Next(r.result, r.current)
}

// Finish stamps the end date and returns the final task result. Later calls
// return the same result.
func (r *Run) Finish() *result.TaskResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.finished {
		r.finished = true
		r.current = ""
		r.result.EndDate = time.Now()
		logger.Info("task run finished", "task", r.result.Identifier, "run", r.result.TaskRunUUID.String(), "steps", len(r.result.StepHistory))
	}
	return r.snapshot()
}

// Snapshot returns a copy of the task result whose history can be read
// while the run continues. Recorded results are never modified after they
// enter the history, so the copy shares them.
func (r *Run) Snapshot() *result.TaskResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot()
}

func (r *Run) snapshot() *result.TaskResult {
	cp := *r.result
	cp.StepHistory = append([]result.Result(nil), r.result.StepHistory...)
	cp.AsyncResults = append([]result.Result(nil), r.result.AsyncResults...)
	return &cp
}

// Finished reports whether Finish was called.
func (r *Run) Finished() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.finished
}
