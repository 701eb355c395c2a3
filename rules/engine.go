package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/liamcoop/survey/form"
	"github.com/liamcoop/survey/internal/logger"
	"github.com/liamcoop/survey/result"
)

// Comparison expressions over the two declared variables. Skip rules never
// reach CEL.
var expressions = map[form.RuleOperator]string{
	form.OpEqual:            "answer == expected",
	form.OpNotEqual:         "answer != expected",
	form.OpLessThan:         "answer < expected",
	form.OpLessThanEqual:    "answer <= expected",
	form.OpGreaterThan:      "answer > expected",
	form.OpGreaterThanEqual: "answer >= expected",
}

var celTypes = map[form.Kind]*cel.Type{
	form.KindBool:    cel.BoolType,
	form.KindInt:     cel.IntType,
	form.KindDecimal: cel.DoubleType,
	form.KindDate:    cel.TimestampType,
	form.KindString:  cel.StringType,
}

// Engine evaluates survey rules by compiling one type-checked CEL program per
// value kind and operator. Safe for concurrent use: environments are
// read-only after construction and the program cache synchronizes itself.
type Engine struct {
	envs  map[form.Kind]*cel.Env
	cache ProgramCache
}

// NewEngine creates a rules engine with a default-sized LRU program cache
func NewEngine() (*Engine, error) {
	cache, err := NewLRUProgramCache(DefaultCacheConfig())
	if err != nil {
		return nil, err
	}
	return NewEngineWithCache(cache)
}

// NewEngineWithCache creates a rules engine backed by the given cache
func NewEngineWithCache(cache ProgramCache) (*Engine, error) {
	en := &Engine{
		envs:  make(map[form.Kind]*cel.Env, len(celTypes)),
		cache: cache,
	}
	for kind, t := range celTypes {
		env, err := cel.NewEnv(
			cel.Variable("answer", t),
			cel.Variable("expected", t),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create CEL environment for %s: %w", kind, err)
		}
		en.envs[kind] = env
	}
	return en, nil
}

func programKey(kind form.Kind, op form.RuleOperator) string {
	return kind.String() + ":" + string(op)
}

// CompileRule returns the program comparing two values of kind with op,
// compiling and caching it on first use.
func (en *Engine) CompileRule(kind form.Kind, op form.RuleOperator) (cel.Program, error) {
	key := programKey(kind, op)
	if prog, ok := en.cache.Get(key); ok {
		return prog, nil
	}

	env, ok := en.envs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no comparison environment for %s values", form.ErrInvalidConfiguration, kind)
	}
	expression, ok := expressions[op]
	if !ok {
		return nil, fmt.Errorf("%w: operator %q has no comparison", form.ErrInvalidConfiguration, op)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	// Cost limit guards against runaway evaluation
	prog, err := env.Program(ast,
		cel.EvalOptions(cel.OptTrackState),
		cel.CostLimit(1000000),
	)
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}

	en.cache.Add(key, prog)
	return prog, nil
}

// Evaluate reports whether answer satisfies rule. Comparing values of
// different kinds is ErrTypeMismatch; ordering booleans is
// ErrInvalidConfiguration. An absent answer matches skip rules, equality with
// an absent matching value, and inequality with a present one.
func (en *Engine) Evaluate(rule form.SurveyRule, answer form.Value) (*EvaluationResult, error) {
	return en.evaluate(0, rule, answer)
}

func (en *Engine) evaluate(index int, rule form.SurveyRule, answer form.Value) (*EvaluationResult, error) {
	op := rule.EffectiveOperator()
	res := &EvaluationResult{RuleIndex: index, Operator: op, SkipIdentifier: rule.SkipIdentifier}
	logger.RuleEvaluated()

	expected := rule.MatchingAnswer
	switch {
	case op == form.OpSkip:
		res.Matched = true
	case answer.IsAbsent() || expected.IsAbsent():
		res.Matched = matchAbsent(op, answer.IsAbsent(), expected.IsAbsent())
	default:
		matched, trace, err := en.compare(op, answer, expected)
		if err != nil {
			return nil, err
		}
		res.Matched = matched
		res.Trace = trace
	}

	logger.Debug("survey rule evaluated",
		"rule_index", index,
		"operator", string(op),
		"skip_identifier", rule.SkipIdentifier,
		"matched", res.Matched,
	)
	return res, nil
}

// matchAbsent decides a comparison where at least one side is absent.
// Absence only equals absence and is never ordered.
func matchAbsent(op form.RuleOperator, answerAbsent, expectedAbsent bool) bool {
	switch op {
	case form.OpEqual:
		return answerAbsent && expectedAbsent
	case form.OpNotEqual:
		return answerAbsent != expectedAbsent
	default:
		return false
	}
}

func (en *Engine) compare(op form.RuleOperator, answer, expected form.Value) (bool, any, error) {
	if answer.Kind() != expected.Kind() {
		return false, nil, fmt.Errorf("%w: cannot compare a %s answer with a %s rule value",
			form.ErrTypeMismatch, answer.Kind(), expected.Kind())
	}
	if answer.Kind() == form.KindBool && op.IsOrdering() {
		return false, nil, fmt.Errorf("%w: boolean answers only support eq and ne, got %s",
			form.ErrInvalidConfiguration, op)
	}

	prog, err := en.CompileRule(answer.Kind(), op)
	if err != nil {
		return false, nil, err
	}
	out, details, err := prog.Eval(map[string]any{
		"answer":   answer.Native(),
		"expected": expected.Native(),
	})
	if err != nil {
		return false, nil, fmt.Errorf("evaluation error: %w", err)
	}

	matched := false
	if boolVal, ok := out.Value().(bool); ok {
		matched = boolVal
	}
	var trace any
	if details != nil {
		trace = details.State()
	}
	return matched, trace, nil
}

// EvaluateSequence evaluates rule against an array answer. Equality matches
// when any element equals the matching value, inequality when none does.
// Ordering operators are not defined on arrays.
func (en *Engine) EvaluateSequence(rule form.SurveyRule, values []form.Value) (*EvaluationResult, error) {
	return en.evaluateSequence(0, rule, values)
}

func (en *Engine) evaluateSequence(index int, rule form.SurveyRule, values []form.Value) (*EvaluationResult, error) {
	op := rule.EffectiveOperator()
	switch {
	case op == form.OpSkip:
		return en.evaluate(index, rule, form.Absent())
	case op.IsOrdering():
		return nil, fmt.Errorf("%w: operator %s cannot be applied to an array answer", form.ErrInvalidConfiguration, op)
	}

	present := make([]form.Value, 0, len(values))
	for _, v := range values {
		if !v.IsAbsent() {
			present = append(present, v)
		}
	}
	// An empty selection behaves like an absent answer.
	if len(present) == 0 || rule.MatchingAnswer.IsAbsent() {
		return en.evaluate(index, rule, sequenceStandIn(present))
	}

	eq := form.SurveyRule{SkipIdentifier: rule.SkipIdentifier, Operator: form.OpEqual, MatchingAnswer: rule.MatchingAnswer}
	for _, v := range present {
		res, err := en.evaluate(index, eq, v)
		if err != nil {
			return nil, err
		}
		if res.Matched {
			res.Operator = op
			res.Matched = op == form.OpEqual
			return res, nil
		}
	}
	return &EvaluationResult{RuleIndex: index, Operator: op, SkipIdentifier: rule.SkipIdentifier, Matched: op == form.OpNotEqual}, nil
}

// sequenceStandIn is the scalar used for absent comparisons: absent for an
// empty selection, otherwise any present element.
func sequenceStandIn(present []form.Value) form.Value {
	if len(present) == 0 {
		return form.Absent()
	}
	return present[0]
}

// EvaluateRules evaluates rules in order against a scalar answer and returns
// the first match. Later rules are not evaluated once one matches. When no
// rule matches the result has Matched == false and RuleIndex == -1.
func (en *Engine) EvaluateRules(rules []form.SurveyRule, answer form.Value) (*EvaluationResult, error) {
	for i, rule := range rules {
		res, err := en.evaluate(i, rule, answer)
		if err != nil {
			return nil, fmt.Errorf("survey rule %d: %w", i, err)
		}
		if res.Matched {
			return res, nil
		}
	}
	return noMatch(), nil
}

// EvaluateAnswer evaluates rules against a recorded answer. A nil answer is
// treated as absent; array answers use sequence semantics.
func (en *Engine) EvaluateAnswer(rules []form.SurveyRule, answer *result.AnswerResult) (*EvaluationResult, error) {
	if answer == nil || !answer.AnswerType.IsArray() {
		value := form.Absent()
		if answer != nil {
			value = answer.Value
		}
		return en.EvaluateRules(rules, value)
	}
	for i, rule := range rules {
		res, err := en.evaluateSequence(i, rule, answer.Values)
		if err != nil {
			return nil, fmt.Errorf("survey rule %d: %w", i, err)
		}
		if res.Matched {
			return res, nil
		}
	}
	return noMatch(), nil
}
