package rules

import "github.com/liamcoop/survey/form"

// EvaluationResult contains the outcome of evaluating survey rules against
// an answer.
type EvaluationResult struct {
	// RuleIndex is the position of the rule in its field's list, -1 when no
	// rule matched.
	RuleIndex      int
	Operator       form.RuleOperator
	SkipIdentifier string
	Matched        bool
	Trace          any // CEL evaluation state (optional)
}

// EndsTask reports whether the matched rule finishes the task.
func (r *EvaluationResult) EndsTask() bool {
	return r.Matched && r.SkipIdentifier == ""
}

func noMatch() *EvaluationResult {
	return &EvaluationResult{RuleIndex: -1}
}
