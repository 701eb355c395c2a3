package result

import (
	"time"

	"github.com/google/uuid"
	"github.com/liamcoop/survey/form"
)

// Type tags identify the result variant in encoded documents.
type Type string

const (
	TypeBase       Type = "base"
	TypeAnswer     Type = "answer"
	TypeCollection Type = "collection"
	TypeTask       Type = "task"
	TypeFile       Type = "file"
)

// Result is implemented by every result variant.
type Result interface {
	Base() *ResultBase
}

// AnswerFinder looks up the answer recorded for an input field.
// A missing answer is reported with ok == false, never as an error.
type AnswerFinder interface {
	FindAnswerResult(identifier string) (*AnswerResult, bool)
}

// ResultBase holds the fields shared by all results.
type ResultBase struct {
	Identifier string
	Type       Type
	StartDate  time.Time
	EndDate    time.Time
}

// NewResultBase returns a base result that starts and ends now.
func NewResultBase(identifier string) *ResultBase {
	now := time.Now()
	return &ResultBase{Identifier: identifier, Type: TypeBase, StartDate: now, EndDate: now}
}

func (b *ResultBase) Base() *ResultBase { return b }

func newBase(identifier string, t Type) ResultBase {
	now := time.Now()
	return ResultBase{Identifier: identifier, Type: t, StartDate: now, EndDate: now}
}

// AnswerResult is the answer to one input field. Array answers keep their
// elements in Values; scalar answers use Value.
type AnswerResult struct {
	ResultBase
	AnswerType AnswerType
	Value      form.Value
	Values     []form.Value
}

// NewAnswerResult returns an empty answer of the given type.
func NewAnswerResult(identifier string, answerType AnswerType) *AnswerResult {
	return &AnswerResult{ResultBase: newBase(identifier, TypeAnswer), AnswerType: answerType}
}

// IsEmpty reports whether no answer was given.
func (r *AnswerResult) IsEmpty() bool {
	if r.AnswerType.IsArray() {
		return len(r.Values) == 0
	}
	return r.Value.IsAbsent()
}

func (r *AnswerResult) FindAnswerResult(identifier string) (*AnswerResult, bool) {
	if r.Identifier == identifier {
		return r, true
	}
	return nil, false
}

// CollectionResult groups the answers of a form step.
type CollectionResult struct {
	ResultBase
	InputResults []Result
}

func NewCollectionResult(identifier string) *CollectionResult {
	return &CollectionResult{ResultBase: newBase(identifier, TypeCollection)}
}

// AppendInputResults adds r, replacing any earlier input result with the same
// identifier.
func (c *CollectionResult) AppendInputResults(r Result) {
	c.InputResults = appendUnique(c.InputResults, r)
}

// RemoveInputResult drops the input result with the given identifier.
func (c *CollectionResult) RemoveInputResult(identifier string) (Result, bool) {
	for i, r := range c.InputResults {
		if r.Base().Identifier == identifier {
			c.InputResults = append(c.InputResults[:i:i], c.InputResults[i+1:]...)
			return r, true
		}
	}
	return nil, false
}

func (c *CollectionResult) FindResult(identifier string) (Result, bool) {
	return findResult(c.InputResults, identifier)
}

func (c *CollectionResult) FindAnswerResult(identifier string) (*AnswerResult, bool) {
	r, ok := c.FindResult(identifier)
	if !ok {
		return nil, false
	}
	answer, ok := r.(*AnswerResult)
	return answer, ok
}

// SchemaInfo names the schema a task result is uploaded against.
type SchemaInfo struct {
	Identifier string `json:"identifier"`
	Revision   int    `json:"revision"`
}

// TaskResult records one run of a task. StepHistory holds only the latest
// result for each step, in the order the steps were last completed.
type TaskResult struct {
	ResultBase
	TaskRunUUID  uuid.UUID
	SchemaInfo   *SchemaInfo
	StepHistory  []Result
	AsyncResults []Result
}

// NewTaskResult starts a task run with a fresh run UUID.
func NewTaskResult(identifier string) *TaskResult {
	return &TaskResult{ResultBase: newBase(identifier, TypeTask), TaskRunUUID: uuid.New()}
}

// AppendStepHistory records r as the latest result of its step. An earlier
// result for the same step is removed, so the step moves to the end.
func (t *TaskResult) AppendStepHistory(r Result) {
	t.StepHistory = appendUnique(t.StepHistory, r)
}

// RemoveStepHistory removes the result with the given identifier and every
// result recorded after it, returning the removed results. Nothing is
// removed when no result has that identifier.
func (t *TaskResult) RemoveStepHistory(from string) []Result {
	for i, r := range t.StepHistory {
		if r.Base().Identifier == from {
			removed := append([]Result(nil), t.StepHistory[i:]...)
			t.StepHistory = t.StepHistory[:i:i]
			return removed
		}
	}
	return nil
}

// AppendAsyncResult adds r, replacing an async result with the same
// identifier in place.
func (t *TaskResult) AppendAsyncResult(r Result) {
	id := r.Base().Identifier
	for i, existing := range t.AsyncResults {
		if existing.Base().Identifier == id {
			t.AsyncResults[i] = r
			return
		}
	}
	t.AsyncResults = append(t.AsyncResults, r)
}

// FindResult returns the step history entry for the step identifier.
func (t *TaskResult) FindResult(identifier string) (Result, bool) {
	return findResult(t.StepHistory, identifier)
}

// FindAnswerResult searches the step history in order, asking each result
// that can hold answers.
func (t *TaskResult) FindAnswerResult(identifier string) (*AnswerResult, bool) {
	return findAnswerResult(t.StepHistory, identifier)
}

// FileResult points at a file recorded during a step.
type FileResult struct {
	ResultBase
	URL         string
	ContentType string
	// StartUptime is the system uptime in seconds when recording started.
	StartUptime *float64
}

func NewFileResult(identifier, url string) *FileResult {
	return &FileResult{ResultBase: newBase(identifier, TypeFile), URL: url}
}

func findResult(results []Result, identifier string) (Result, bool) {
	for _, r := range results {
		if r.Base().Identifier == identifier {
			return r, true
		}
	}
	return nil, false
}

func findAnswerResult(results []Result, identifier string) (*AnswerResult, bool) {
	for _, r := range results {
		finder, ok := r.(AnswerFinder)
		if !ok {
			continue
		}
		if answer, ok := finder.FindAnswerResult(identifier); ok {
			return answer, true
		}
	}
	return nil, false
}

func appendUnique(results []Result, r Result) []Result {
	id := r.Base().Identifier
	out := results[:0:0]
	for _, existing := range results {
		if existing.Base().Identifier != id {
			out = append(out, existing)
		}
	}
	return append(out, r)
}
