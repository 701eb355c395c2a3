package task

import (
	"encoding/json"
	"fmt"

	"github.com/liamcoop/survey/form"
	"github.com/liamcoop/survey/result"
)

// StepType selects how a step is presented.
type StepType string

const (
	StepForm        StepType = "form"
	StepInstruction StepType = "instruction"
	StepCompletion  StepType = "completion"
)

var stepTypes = map[StepType]bool{
	StepForm:        true,
	StepInstruction: true,
	StepCompletion:  true,
}

// Step is one screen of a task. Only form steps own input fields.
type Step struct {
	Identifier         string
	Type               StepType
	Title              string
	Text               string
	InputFields        []form.Field
	NextStepIdentifier string
}

// Field returns the input field with the given identifier.
func (s *Step) Field(identifier string) (form.Field, bool) {
	for _, f := range s.InputFields {
		if f.Input().Identifier == identifier {
			return f, true
		}
	}
	return nil, false
}

// Task is an ordered list of steps.
type Task struct {
	Identifier string
	SchemaInfo *result.SchemaInfo
	Steps      []*Step
}

// Step returns the step with the given identifier.
func (t *Task) Step(identifier string) (*Step, bool) {
	if i := t.StepIndex(identifier); i >= 0 {
		return t.Steps[i], true
	}
	return nil, false
}

// StepIndex returns the position of the step, or -1.
func (t *Task) StepIndex(identifier string) int {
	for i, s := range t.Steps {
		if s.Identifier == identifier {
			return i
		}
	}
	return -1
}

type stepDoc struct {
	Identifier         string            `json:"identifier"`
	Type               StepType          `json:"type,omitempty"`
	Title              string            `json:"title,omitempty"`
	Text               string            `json:"text,omitempty"`
	InputFields        []json.RawMessage `json:"inputFields,omitempty"`
	NextStepIdentifier string            `json:"nextStepIdentifier,omitempty"`
}

type taskDoc struct {
	Identifier string             `json:"identifier"`
	SchemaInfo *result.SchemaInfo `json:"schemaInfo,omitempty"`
	Steps      []json.RawMessage  `json:"steps"`
}

func (s Step) MarshalJSON() ([]byte, error) {
	doc := stepDoc{
		Identifier:         s.Identifier,
		Type:               s.Type,
		Title:              s.Title,
		Text:               s.Text,
		NextStepIdentifier: s.NextStepIdentifier,
	}
	for _, f := range s.InputFields {
		raw, err := json.Marshal(f)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", s.Identifier, err)
		}
		doc.InputFields = append(doc.InputFields, raw)
	}
	return json.Marshal(doc)
}

func (t Task) MarshalJSON() ([]byte, error) {
	doc := taskDoc{Identifier: t.Identifier, SchemaInfo: t.SchemaInfo, Steps: []json.RawMessage{}}
	for _, s := range t.Steps {
		raw, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		doc.Steps = append(doc.Steps, raw)
	}
	return json.Marshal(doc)
}

// DecodeStep decodes a step document. A step without a type is a form step
// when it has input fields and an instruction step otherwise.
func DecodeStep(data []byte) (*Step, error) {
	var doc stepDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: step must be an object: %v", form.ErrInvalidFormat, err)
	}
	if doc.Identifier == "" {
		return nil, fmt.Errorf("%w: step has no identifier", form.ErrMissingRequiredField)
	}
	s := &Step{
		Identifier:         doc.Identifier,
		Type:               doc.Type,
		Title:              doc.Title,
		Text:               doc.Text,
		NextStepIdentifier: doc.NextStepIdentifier,
	}
	if s.Type == "" {
		s.Type = StepInstruction
		if len(doc.InputFields) > 0 {
			s.Type = StepForm
		}
	}
	if !stepTypes[s.Type] {
		return nil, fmt.Errorf("%w: step %q has unknown type %q", form.ErrInvalidType, s.Identifier, s.Type)
	}
	for i, raw := range doc.InputFields {
		f, err := form.DecodeField(raw)
		if err != nil {
			return nil, fmt.Errorf("step %q input field %d: %w", s.Identifier, i, err)
		}
		s.InputFields = append(s.InputFields, f)
	}
	return s, nil
}

// DecodeTask decodes a task document. Any step or input field that fails to
// decode fails the whole task.
func DecodeTask(data []byte) (*Task, error) {
	var doc taskDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: task must be an object: %v", form.ErrInvalidFormat, err)
	}
	if doc.Identifier == "" {
		return nil, fmt.Errorf("%w: task has no identifier", form.ErrMissingRequiredField)
	}
	t := &Task{Identifier: doc.Identifier, SchemaInfo: doc.SchemaInfo}
	for _, raw := range doc.Steps {
		s, err := DecodeStep(raw)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", t.Identifier, err)
		}
		t.Steps = append(t.Steps, s)
	}
	return t, nil
}
