package task

import (
	"errors"
	"fmt"

	"github.com/liamcoop/survey/internal/logger"
	"github.com/liamcoop/survey/result"
	"github.com/liamcoop/survey/rules"
)

var ErrStepNotFound = errors.New("step not found")

// Decision is where a task goes after a step.
type Decision struct {
	// NextStepIdentifier is empty when the task ends.
	NextStepIdentifier string
	// Field and RuleIndex name the survey rule that decided, when one did.
	Field     string
	RuleIndex int
}

// Ended reports whether the task is finished.
func (d Decision) Ended() bool { return d.NextStepIdentifier == "" }

// Navigator picks the step that follows the current one.
type Navigator struct {
	task   *Task
	engine *rules.Engine
}

func NewNavigator(t *Task, engine *rules.Engine) *Navigator {
	return &Navigator{task: t, engine: engine}
}

func (n *Navigator) Task() *Task { return n.task }

// Next decides the step after current. The survey rules of the step's fields
// are evaluated in document order against the recorded answers and the
// first match wins. Without a match the step's nextStepIdentifier is used,
// then the following step. The task ends after the last step.
func (n *Navigator) Next(taskResult *result.TaskResult, current string) (Decision, error) {
	index := n.task.StepIndex(current)
	if index < 0 {
		return Decision{}, fmt.Errorf("%w: %s", ErrStepNotFound, current)
	}
	step := n.task.Steps[index]

	for _, f := range step.InputFields {
		input := f.Input()
		if len(input.SurveyRules) == 0 {
			continue
		}
		answer := findAnswer(taskResult, step.Identifier, input.Identifier)
		res, err := n.engine.EvaluateAnswer(input.SurveyRules, answer)
		if err != nil {
			return Decision{}, fmt.Errorf("step %q field %q: %w", step.Identifier, input.Identifier, err)
		}
		if res.Matched {
			logger.Debug("survey rule matched",
				"step", step.Identifier,
				"field", input.Identifier,
				"rule_index", res.RuleIndex,
				"skip_identifier", res.SkipIdentifier,
			)
			return Decision{NextStepIdentifier: res.SkipIdentifier, Field: input.Identifier, RuleIndex: res.RuleIndex}, nil
		}
	}

	d := Decision{RuleIndex: -1}
	switch {
	case step.NextStepIdentifier != "":
		d.NextStepIdentifier = step.NextStepIdentifier
	case index+1 < len(n.task.Steps):
		d.NextStepIdentifier = n.task.Steps[index+1].Identifier
	}
	logger.Debug("navigation decided", "step", step.Identifier, "next", d.NextStepIdentifier)
	return d, nil
}

// findAnswer prefers the answer recorded by the step itself and falls back
// to searching the whole history.
func findAnswer(taskResult *result.TaskResult, step, field string) *result.AnswerResult {
	if taskResult == nil {
		return nil
	}
	if r, ok := taskResult.FindResult(step); ok {
		if finder, ok := r.(result.AnswerFinder); ok {
			if answer, ok := finder.FindAnswerResult(field); ok {
				return answer
			}
		}
	}
	answer, _ := taskResult.FindAnswerResult(field)
	return answer
}
