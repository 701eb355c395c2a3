package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const intakeYAML = `
identifier: intake
steps:
  - identifier: intro
    type: instruction
  - identifier: age
    inputFields:
      - identifier: age
        dataType: integer
        surveyRules:
          - ruleOperator: lt
            expectedAnswer: 18
            skipIdentifier: minor
  - identifier: adult
    nextStepIdentifier: done
  - identifier: minor
    type: instruction
  - identifier: done
    type: completion
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes surveyctl in process and returns its standard output
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, name := range []string{"SURVEY_LOG_LEVEL", "SURVEY_ERROR_SAMPLE_RATE", "SURVEY_OUTPUT_FORMAT", "SURVEY_PROGRAM_CACHE_SIZE"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &bytes.Buffer{}
	err := app.Run(append([]string{"surveyctl"}, args...))
	return out.String(), err
}

// TestValidateCommand verifies good and bad documents are reported together
func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "intake.yaml", intakeYAML)
	bad := writeFile(t, dir, "bad.json", `{"identifier":"bad","steps":[
		{"identifier":"a","nextStepIdentifier":"nowhere"},
		{"identifier":"a","type":"completion"}
	]}`)

	out, err := run(t, "validate", good, bad)
	if err == nil {
		t.Fatal("validate should fail when a document is invalid")
	}

	var resp ValidateResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if resp.Invalid != 1 || len(resp.Documents) != 2 {
		t.Fatalf("response = %+v, want 2 documents with 1 invalid", resp)
	}
	if !resp.Documents[0].Valid || resp.Documents[0].Steps != 5 {
		t.Errorf("first document = %+v, want valid with 5 steps", resp.Documents[0])
	}
	if len(resp.Documents[1].Errors) != 2 {
		t.Errorf("second document errors = %v, want 2", resp.Documents[1].Errors)
	}
}

// TestNormalizeCommand verifies YAML output of a decoded document
func TestNormalizeCommand(t *testing.T) {
	path := writeFile(t, t.TempDir(), "intake.yaml", intakeYAML)

	out, err := run(t, "--format", "yaml", "normalize", path)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	for _, want := range []string{"identifier: intake", "type: form", "skipIdentifier: minor"} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q:\n%s", want, out)
		}
	}
}

// TestNavigateCommand verifies a decision from a recorded task result
func TestNavigateCommand(t *testing.T) {
	dir := t.TempDir()
	taskPath := writeFile(t, dir, "intake.yaml", intakeYAML)
	resultPath := writeFile(t, dir, "result.json", `{
		"identifier": "intake",
		"type": "task",
		"stepHistory": [{
			"identifier": "age",
			"type": "collection",
			"inputResults": [{
				"identifier": "age",
				"type": "answer",
				"answerType": {"baseType": "integer"},
				"value": 12
			}]
		}]
	}`)

	out, err := run(t, "navigate", taskPath, resultPath, "age")
	if err != nil {
		t.Fatalf("navigate failed: %v", err)
	}
	var resp NavigateResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if resp.NextStepIdentifier != "minor" || resp.Ended || resp.RuleIndex != 0 {
		t.Errorf("response = %+v, want skip to minor by rule 0", resp)
	}

	if _, err := run(t, "navigate", taskPath, resultPath, "nowhere"); err == nil {
		t.Error("navigate from an unknown step should fail")
	}
}

// TestRulesCommand verifies inline fields and array answers
func TestRulesCommand(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantMatch bool
		wantSkip  string
	}{
		{
			name:      "scalar match",
			args:      []string{`{"identifier":"age","dataType":"integer","surveyRules":[{"ruleOperator":"lt","expectedAnswer":18,"skipIdentifier":"minor"}]}`, "9"},
			wantMatch: true,
			wantSkip:  "minor",
		},
		{
			name: "scalar no match",
			args: []string{`{"identifier":"age","dataType":"integer","surveyRules":[{"ruleOperator":"lt","expectedAnswer":18,"skipIdentifier":"minor"}]}`, "40"},
		},
		{
			name:      "array any element",
			args:      []string{`{"identifier":"s","dataType":"multipleChoice","choices":["a","b"],"surveyRules":[{"expectedAnswer":"b","skipIdentifier":"x"}]}`, "a", "b"},
			wantMatch: true,
			wantSkip:  "x",
		},
		{
			name:      "absent answer ends",
			args:      []string{`{"identifier":"ok","dataType":"boolean","surveyRules":[{"ruleOperator":"de"}]}`},
			wantMatch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"rules"}, tt.args...)...)
			if err != nil {
				t.Fatalf("rules failed: %v", err)
			}
			var resp RuleEvaluationResponse
			if err := json.Unmarshal([]byte(out), &resp); err != nil {
				t.Fatalf("output is not JSON: %v\n%s", err, out)
			}
			if resp.Matched != tt.wantMatch || resp.SkipIdentifier != tt.wantSkip {
				t.Errorf("response = %+v, want matched=%v skip=%q", resp, tt.wantMatch, tt.wantSkip)
			}
			if tt.wantMatch && tt.wantSkip == "" && !resp.EndsTask {
				t.Error("match without skip target should end the task")
			}
		})
	}
}

// TestWalkCommand verifies a full run driven by an answers file
func TestWalkCommand(t *testing.T) {
	dir := t.TempDir()
	taskPath := writeFile(t, dir, "intake.yaml", intakeYAML)

	tests := []struct {
		name    string
		answers string
		want    []string
	}{
		{"minor", "age: 12\n", []string{"intro", "age", "minor", "done"}},
		{"adult", "age: 30\n", []string{"intro", "age", "adult", "done"}},
		{"unanswered", "{}\n", []string{"intro", "age", "adult", "done"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := writeFile(t, t.TempDir(), "answers.yaml", tt.answers)
			out, err := run(t, "walk", taskPath, answers)
			if err != nil {
				t.Fatalf("walk failed: %v", err)
			}
			var resp struct {
				Path []string `json:"path"`
			}
			if err := json.Unmarshal([]byte(out), &resp); err != nil {
				t.Fatalf("output is not JSON: %v\n%s", err, out)
			}
			if strings.Join(resp.Path, ",") != strings.Join(tt.want, ",") {
				t.Errorf("path = %v, want %v", resp.Path, tt.want)
			}
		})
	}
}

// TestUnknownFormat verifies the format flag is checked
func TestUnknownFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "intake.yaml", intakeYAML)

	if _, err := run(t, "--format", "xml", "normalize", path); err == nil {
		t.Error("an unknown output format should fail")
	}
}
