package main

import (
	"github.com/liamcoop/survey/form"
	"github.com/liamcoop/survey/result"
)

// Command output models. Every command writes one of these in the selected
// output format.

// DocumentReport is the validation outcome of one task document
type DocumentReport struct {
	File   string   `json:"file"`
	Task   string   `json:"task,omitempty"`
	Steps  int      `json:"steps,omitempty"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidateResponse represents the output of the validate command
type ValidateResponse struct {
	Documents []DocumentReport `json:"documents"`
	Invalid   int              `json:"invalid"`
}

// NavigateResponse represents a navigation decision
type NavigateResponse struct {
	Task               string `json:"task"`
	Step               string `json:"step"`
	NextStepIdentifier string `json:"nextStepIdentifier,omitempty"`
	Ended              bool   `json:"ended"`
	Field              string `json:"field,omitempty"`
	RuleIndex          int    `json:"ruleIndex"`
}

// RuleEvaluationResponse represents the outcome of a field's survey rules
type RuleEvaluationResponse struct {
	Field          string            `json:"field"`
	AnswerType     result.AnswerType `json:"answerType"`
	Matched        bool              `json:"matched"`
	RuleIndex      int               `json:"ruleIndex"`
	Operator       form.RuleOperator `json:"operator,omitempty"`
	SkipIdentifier string            `json:"skipIdentifier,omitempty"`
	EndsTask       bool              `json:"endsTask"`
}

// WalkResponse represents a complete run of a task driven by an answers file
type WalkResponse struct {
	Path   []string           `json:"path"`
	Result *result.TaskResult `json:"result"`
}
