package form

import (
	"encoding/json"
	"errors"
)

// RuleOperator is the comparison a survey rule applies to an answer.
type RuleOperator string

const (
	OpUnspecified      RuleOperator = ""
	OpEqual            RuleOperator = "eq"
	OpNotEqual         RuleOperator = "ne"
	OpLessThan         RuleOperator = "lt"
	OpLessThanEqual    RuleOperator = "le"
	OpGreaterThan      RuleOperator = "gt"
	OpGreaterThanEqual RuleOperator = "ge"
	OpSkip             RuleOperator = "de"
)

var ruleOperators = map[RuleOperator]bool{
	OpEqual:            true,
	OpNotEqual:         true,
	OpLessThan:         true,
	OpLessThanEqual:    true,
	OpGreaterThan:      true,
	OpGreaterThanEqual: true,
	OpSkip:             true,
}

// IsOrdering reports whether the operator needs ordered values.
func (op RuleOperator) IsOrdering() bool {
	switch op {
	case OpLessThan, OpLessThanEqual, OpGreaterThan, OpGreaterThanEqual:
		return true
	}
	return false
}

// SurveyRule branches navigation when an answer compares true against
// MatchingAnswer. An empty SkipIdentifier ends the task.
type SurveyRule struct {
	SkipIdentifier string
	Operator       RuleOperator
	MatchingAnswer Value
}

// EffectiveOperator is the operator used for evaluation. An unspecified
// operator means equality.
func (r SurveyRule) EffectiveOperator() RuleOperator {
	if r.Operator == OpUnspecified {
		return OpEqual
	}
	return r.Operator
}

// EndsTask reports whether a match of this rule finishes the task.
func (r SurveyRule) EndsTask() bool { return r.SkipIdentifier == "" }

// validateFor checks the rule against the owning field's answer kind.
func (r SurveyRule) validateFor(want Kind) error {
	if !r.MatchingAnswer.IsAbsent() && r.MatchingAnswer.Kind() != want {
		return fieldError(ErrInvalidConfiguration, "", "expectedAnswer", "rule compares %s against a %s field", r.MatchingAnswer.Kind(), want)
	}
	if want == KindBool && r.EffectiveOperator().IsOrdering() {
		return fieldError(ErrInvalidConfiguration, "", "ruleOperator", "boolean rules only support eq and ne, got %s", r.Operator)
	}
	return nil
}

var ruleKeys = []string{"skipIdentifier", "ruleOperator", "expectedAnswer", "matchingAnswer"}

type surveyRuleDoc struct {
	SkipIdentifier *string         `json:"skipIdentifier,omitempty"`
	RuleOperator   *string         `json:"ruleOperator,omitempty"`
	ExpectedAnswer json.RawMessage `json:"expectedAnswer,omitempty"`
}

func (r SurveyRule) MarshalJSON() ([]byte, error) {
	var doc surveyRuleDoc
	if r.SkipIdentifier != "" {
		doc.SkipIdentifier = &r.SkipIdentifier
	}
	if r.Operator != OpUnspecified {
		op := string(r.Operator)
		doc.RuleOperator = &op
	}
	if !r.MatchingAnswer.IsAbsent() {
		raw, err := r.MatchingAnswer.MarshalJSON()
		if err != nil {
			return nil, err
		}
		doc.ExpectedAnswer = raw
	}
	return json.Marshal(doc)
}

// hasInlineRule reports whether the field document carries rule keys.
func hasInlineRule(keys map[string]json.RawMessage) bool {
	for _, k := range ruleKeys {
		if _, ok := keys[k]; ok {
			return true
		}
	}
	return false
}

// DecodeSurveyRule decodes a single rule whose matching value must be of kind
// want. Date values are parsed with datePattern first and ISO 8601 second.
func DecodeSurveyRule(data json.RawMessage, want Kind, datePattern string) (SurveyRule, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return SurveyRule{}, fieldError(ErrInvalidFormat, "", "surveyRules", "rule must be an object")
	}
	return decodeRuleKeys(keys, want, datePattern)
}

func decodeRuleKeys(keys map[string]json.RawMessage, want Kind, datePattern string) (SurveyRule, error) {
	var rule SurveyRule
	if raw, ok := keys["skipIdentifier"]; ok {
		var s *string
		if err := json.Unmarshal(raw, &s); err != nil {
			return SurveyRule{}, fieldError(ErrInvalidFormat, "", "skipIdentifier", "must be a string")
		}
		if s != nil {
			rule.SkipIdentifier = *s
		}
	}
	if raw, ok := keys["ruleOperator"]; ok {
		var s *string
		if err := json.Unmarshal(raw, &s); err != nil {
			return SurveyRule{}, fieldError(ErrInvalidFormat, "", "ruleOperator", "must be a string")
		}
		if s != nil {
			op := RuleOperator(*s)
			if !ruleOperators[op] {
				return SurveyRule{}, fieldError(ErrInvalidType, "", "ruleOperator", "unknown operator %q", *s)
			}
			rule.Operator = op
		}
	}

	expected, hasExpected := keys["expectedAnswer"]
	matching, hasMatching := keys["matchingAnswer"]
	if hasExpected && hasMatching {
		return SurveyRule{}, fieldError(ErrInvalidFormat, "", "matchingAnswer", "expectedAnswer and matchingAnswer are mutually exclusive")
	}
	key, raw := "expectedAnswer", expected
	if hasMatching {
		key, raw = "matchingAnswer", matching
	}
	if len(raw) > 0 {
		v, err := DecodeValue(raw, want, datePattern)
		if err != nil && want == KindDate && datePattern != "" && errors.Is(err, ErrInvalidFormat) {
			v, err = DecodeValue(raw, want, "")
		}
		if err != nil {
			return SurveyRule{}, withContext(err, "", key)
		}
		rule.MatchingAnswer = v
	}
	return rule, nil
}
