package task

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/liamcoop/survey/form"
)

const maxIdentifierLength = 100

// Validate checks a decoded task and reports every violation found, not
// just the first. Each violation wraps form.ErrInvalidConfiguration or the
// kind returned by the field's own validation.
func Validate(t *Task) error {
	var result *multierror.Error

	if err := validateIdentifier(t.Identifier); err != nil {
		result = multierror.Append(result, fmt.Errorf("%w: invalid task identifier %q: %v", form.ErrInvalidConfiguration, t.Identifier, err))
	}
	if len(t.Steps) == 0 {
		result = multierror.Append(result, fmt.Errorf("%w: task %q must contain at least one step", form.ErrInvalidConfiguration, t.Identifier))
	}

	steps := make(map[string]bool, len(t.Steps))
	for _, s := range t.Steps {
		if err := validateIdentifier(s.Identifier); err != nil {
			result = multierror.Append(result, fmt.Errorf("%w: invalid step identifier %q: %v", form.ErrInvalidConfiguration, s.Identifier, err))
		}
		if steps[s.Identifier] {
			result = multierror.Append(result, fmt.Errorf("%w: duplicate step identifier %q", form.ErrInvalidConfiguration, s.Identifier))
		}
		steps[s.Identifier] = true
	}

	for _, s := range t.Steps {
		if s.Type != StepForm && len(s.InputFields) > 0 {
			result = multierror.Append(result, fmt.Errorf("%w: %s step %q cannot have input fields", form.ErrInvalidConfiguration, s.Type, s.Identifier))
		}
		if s.NextStepIdentifier != "" && !steps[s.NextStepIdentifier] {
			result = multierror.Append(result, fmt.Errorf("%w: step %q continues to unknown step %q", form.ErrInvalidConfiguration, s.Identifier, s.NextStepIdentifier))
		}

		fields := make(map[string]bool, len(s.InputFields))
		for _, f := range s.InputFields {
			input := f.Input()
			if fields[input.Identifier] {
				result = multierror.Append(result, fmt.Errorf("%w: step %q has duplicate input field %q", form.ErrInvalidConfiguration, s.Identifier, input.Identifier))
			}
			fields[input.Identifier] = true

			if err := f.Validate(); err != nil {
				result = multierror.Append(result, fmt.Errorf("step %q: %w", s.Identifier, err))
			}
			for i, rule := range input.SurveyRules {
				if rule.SkipIdentifier != "" && !steps[rule.SkipIdentifier] {
					result = multierror.Append(result, fmt.Errorf("%w: step %q field %q rule %d skips to unknown step %q",
						form.ErrInvalidConfiguration, s.Identifier, input.Identifier, i, rule.SkipIdentifier))
				}
			}
		}
	}

	return result.ErrorOrNil()
}

// validateIdentifier checks a task or step identifier: 1-100 characters
// without surrounding whitespace.
func validateIdentifier(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > maxIdentifierLength {
		return fmt.Errorf("identifier length %d exceeds maximum of %d characters", len(name), maxIdentifierLength)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("identifier has leading or trailing whitespace")
	}
	return nil
}
