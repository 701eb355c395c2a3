package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/liamcoop/survey/form"
	"github.com/liamcoop/survey/result"
	"github.com/liamcoop/survey/task"
	"github.com/urfave/cli/v2"
	"sigs.k8s.io/yaml"
)

func (s *session) validate(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("validate needs at least one FILE")
	}

	resp := ValidateResponse{Documents: []DocumentReport{}}
	for _, path := range c.Args().Slice() {
		report := DocumentReport{File: path}
		t, err := task.LoadFile(path)
		if err != nil {
			report.Errors = errorLines(err)
			resp.Invalid++
		} else {
			report.Valid = true
			report.Task = t.Identifier
			report.Steps = len(t.Steps)
		}
		resp.Documents = append(resp.Documents, report)
	}

	if err := s.write(resp); err != nil {
		return err
	}
	if resp.Invalid > 0 {
		return fmt.Errorf("%d of %d documents invalid", resp.Invalid, len(resp.Documents))
	}
	return nil
}

// errorLines splits aggregated validation errors into one line each
func errorLines(err error) []string {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		lines := make([]string, 0, len(merr.Errors))
		for _, e := range merr.Errors {
			lines = append(lines, e.Error())
		}
		return lines
	}
	return []string{err.Error()}
}

func (s *session) normalize(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("normalize needs exactly one FILE")
	}
	t, err := task.LoadFile(c.Args().First())
	if err != nil {
		return err
	}
	return s.write(t)
}

func (s *session) navigate(c *cli.Context) error {
	if c.NArg() != 3 {
		return errors.New("navigate needs TASK RESULT STEP")
	}
	t, err := task.LoadFile(c.Args().Get(0))
	if err != nil {
		return err
	}
	data, err := readDocument(c.Args().Get(1))
	if err != nil {
		return err
	}
	tr, err := result.DecodeTaskResult(data)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Args().Get(1), err)
	}

	step := c.Args().Get(2)
	d, err := task.NewNavigator(t, s.engine).Next(tr, step)
	if err != nil {
		return err
	}
	return s.write(NavigateResponse{
		Task:               t.Identifier,
		Step:               step,
		NextStepIdentifier: d.NextStepIdentifier,
		Ended:              d.Ended(),
		Field:              d.Field,
		RuleIndex:          d.RuleIndex,
	})
}

// rules evaluates a field's survey rules. FIELD is a file or an inline
// document. Array answers take one VALUE per selected element; no VALUE is
// an absent answer.
func (s *session) rules(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("rules needs FIELD and an optional VALUE")
	}
	fieldDoc := c.Args().First()
	data, err := readDocument(fieldDoc)
	if err != nil && strings.ContainsAny(fieldDoc, "{:") {
		data, err = yaml.YAMLToJSON([]byte(fieldDoc))
	}
	if err != nil {
		return err
	}

	field, err := form.DecodeField(data)
	if err != nil {
		return err
	}
	if err := field.Validate(); err != nil {
		return err
	}
	at, err := result.AnswerTypeFor(field)
	if err != nil {
		return err
	}

	identifier := field.Input().Identifier
	answer := result.NewAnswerResult(identifier, at)
	values := c.Args().Tail()
	kind := at.BaseType.Kind()
	if at.IsArray() {
		for _, text := range values {
			v, err := form.ParseValue(text, kind, at.DateFormat)
			if err != nil {
				return err
			}
			answer.Values = append(answer.Values, v)
		}
	} else {
		if len(values) > 1 {
			return fmt.Errorf("field %q takes a single VALUE", identifier)
		}
		if len(values) == 1 {
			if answer.Value, err = form.ParseValue(values[0], kind, at.DateFormat); err != nil {
				return err
			}
		}
	}

	res, err := s.engine.EvaluateAnswer(field.Input().SurveyRules, answer)
	if err != nil {
		return err
	}
	return s.write(RuleEvaluationResponse{
		Field:          identifier,
		AnswerType:     at,
		Matched:        res.Matched,
		RuleIndex:      res.RuleIndex,
		Operator:       res.Operator,
		SkipIdentifier: res.SkipIdentifier,
		EndsTask:       res.EndsTask(),
	})
}

// walk drives a task run with the manager, recording the answers file's
// value for every field it names. An answered field is keyed by its
// identifier; arrays answer multiple choice fields.
func (s *session) walk(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("walk needs TASK ANSWERS")
	}
	t, err := task.LoadFile(c.Args().Get(0))
	if err != nil {
		return err
	}
	data, err := readDocument(c.Args().Get(1))
	if err != nil {
		return err
	}
	var answers map[string]json.RawMessage
	if err := json.Unmarshal(data, &answers); err != nil {
		return fmt.Errorf("%s: answers must be an object: %w", c.Args().Get(1), err)
	}

	store := task.NewInMemoryStore()
	if err := store.Add(t); err != nil {
		return err
	}
	manager := task.NewManager(store, s.engine)
	run, err := manager.Start(t.Identifier)
	if err != nil {
		return err
	}

	visited := make(map[string]bool)
	var path []string
	for !run.Finished() {
		current := run.Current()
		if visited[current] {
			manager.Finish(run.ID())
			return fmt.Errorf("step %q reached twice with the same answers", current)
		}
		visited[current] = true
		path = append(path, current)

		if err := recordStep(run, t, current, answers); err != nil {
			manager.Finish(run.ID())
			return err
		}
		if _, err := manager.Advance(run.ID()); err != nil {
			manager.Finish(run.ID())
			return err
		}
	}

	return s.write(WalkResponse{Path: path, Result: run.Snapshot()})
}

func recordStep(run *task.Run, t *task.Task, identifier string, answers map[string]json.RawMessage) error {
	step, _ := t.Step(identifier)
	if step.Type != task.StepForm {
		return run.Record(result.NewResultBase(identifier))
	}
	for _, f := range step.InputFields {
		raw, ok := answers[f.Input().Identifier]
		if !ok {
			continue
		}
		answer, err := decodeAnswer(f, raw)
		if err != nil {
			return fmt.Errorf("step %q: %w", identifier, err)
		}
		if err := run.RecordAnswer(answer); err != nil {
			return err
		}
	}
	return nil
}

func decodeAnswer(f form.Field, raw json.RawMessage) (*result.AnswerResult, error) {
	at, err := result.AnswerTypeFor(f)
	if err != nil {
		return nil, err
	}
	identifier := f.Input().Identifier
	answer := result.NewAnswerResult(identifier, at)
	kind := at.BaseType.Kind()

	if !at.IsArray() {
		if answer.Value, err = form.DecodeValue(raw, kind, at.DateFormat); err != nil {
			return nil, fmt.Errorf("answer for %q: %w", identifier, err)
		}
		return answer, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		items = []json.RawMessage{raw}
	}
	for _, item := range items {
		v, err := form.DecodeValue(item, kind, at.DateFormat)
		if err != nil {
			return nil, fmt.Errorf("answer for %q: %w", identifier, err)
		}
		answer.Values = append(answer.Values, v)
	}
	return answer, nil
}

// readDocument reads a JSON or YAML file and returns it as JSON
func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return jsonData, nil
}
