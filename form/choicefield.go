package form

import (
	"encoding/json"
	"fmt"
)

// ChoiceInputField is a single or multiple choice question.
type ChoiceInputField struct {
	InputField
	Choices []Choice
	// AllowOther permits a free text answer outside the listed choices.
	AllowOther bool
}

// NewChoiceInputField builds a choice field over the given choices.
func NewChoiceInputField(identifier string, collection CollectionType, base BaseType, choices []Choice) *ChoiceInputField {
	return &ChoiceInputField{
		InputField: InputField{Identifier: identifier, DataType: Collection(collection, base)},
		Choices:    choices,
	}
}

func (f *ChoiceInputField) Input() *InputField { return &f.InputField }

// HasImages reports whether any choice declares an icon.
func (f *ChoiceInputField) HasImages() bool {
	for _, c := range f.Choices {
		if c.HasIcon() {
			return true
		}
	}
	return false
}

// ChoiceIndex returns the index of the first choice carrying v.
func (f *ChoiceInputField) ChoiceIndex(v Value) (int, bool) {
	for i, c := range f.Choices {
		if c.Matches(v) {
			return i, true
		}
	}
	return -1, false
}

// AcceptsAnswer reports whether v is one of the choices, or free text when
// AllowOther is set on a string field.
func (f *ChoiceInputField) AcceptsAnswer(v Value) bool {
	if _, ok := f.ChoiceIndex(v); ok {
		return true
	}
	return f.AllowOther && v.Kind() == KindString
}

// Select returns the selection after the user taps the choice at index. A
// single choice field keeps only index. In a multiple choice field an
// exclusive choice clears every other selection, selecting a regular choice
// clears exclusive ones, and tapping a selected choice deselects it.
func (f *ChoiceInputField) Select(selected []int, index int) ([]int, error) {
	if index < 0 || index >= len(f.Choices) {
		return nil, fmt.Errorf("%w: choice index %d out of range", ErrInvalidConfiguration, index)
	}
	if f.DataType.Collection != CollectionMultipleChoice {
		return []int{index}, nil
	}
	if f.Choices[index].IsExclusive {
		for _, i := range selected {
			if i == index {
				return []int{}, nil
			}
		}
		return []int{index}, nil
	}

	out := make([]int, 0, len(selected)+1)
	toggledOff := false
	for _, i := range selected {
		if i < 0 || i >= len(f.Choices) || f.Choices[i].IsExclusive {
			continue
		}
		if i == index {
			toggledOff = true
			continue
		}
		out = append(out, i)
	}
	if !toggledOff {
		out = append(out, index)
	}
	return out, nil
}

// SelectedValues maps selected indices to the values of their choices,
// skipping absent ("prefer not to answer") values.
func (f *ChoiceInputField) SelectedValues(selected []int) []Value {
	out := make([]Value, 0, len(selected))
	for _, i := range selected {
		if i >= 0 && i < len(f.Choices) && !f.Choices[i].Value.IsAbsent() {
			out = append(out, f.Choices[i].Value)
		}
	}
	return out
}

func (f *ChoiceInputField) Validate() error {
	if err := f.validate(); err != nil {
		return withContext(err, f.Identifier, "")
	}
	switch f.DataType.Collection {
	case CollectionSingleChoice, CollectionMultipleChoice:
	default:
		return fieldError(ErrInvalidConfiguration, f.Identifier, "dataType", "%s is not a choice data type", f.DataType)
	}
	if len(f.Choices) == 0 {
		return fieldError(ErrInvalidConfiguration, f.Identifier, "choices", "choice field has no choices")
	}
	return withContext(validateChoices(f.Choices, ChoiceValueKind(f.DataType), "choices"), f.Identifier, "")
}

func (f ChoiceInputField) MarshalJSON() ([]byte, error) {
	doc, err := f.InputField.document()
	if err != nil {
		return nil, err
	}
	doc.Choices = f.Choices
	doc.AllowOther = f.AllowOther
	return json.Marshal(doc)
}

func (f *ChoiceInputField) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeChoiceInputField(data)
	if err != nil {
		return err
	}
	*f = *decoded
	return nil
}

// DecodeChoiceInputField decodes a choice field. The base input field is
// decoded first; its data type then selects the choice value kind.
func DecodeChoiceInputField(data []byte) (*ChoiceInputField, error) {
	keys, identifier, err := fieldKeys(data)
	if err != nil {
		return nil, err
	}
	base, err := decodeInputFieldKeys(keys)
	if err != nil {
		return nil, withContext(err, identifier, "")
	}
	raw, ok := keys["choices"]
	if !ok || isNull(raw) {
		return nil, fieldError(ErrMissingRequiredField, identifier, "choices", "choice field has no choices")
	}
	choices, err := DecodeChoiceList(raw, ChoiceValueKind(base.DataType))
	if err != nil {
		return nil, withContext(err, identifier, "choices")
	}
	f := &ChoiceInputField{InputField: *base, Choices: choices}
	if raw, ok := keys["allowOther"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &f.AllowOther); err != nil {
			return nil, fieldError(ErrInvalidFormat, identifier, "allowOther", "allowOther must be a boolean")
		}
	}
	return f, nil
}

// MultipleComponentInputField is answered by picking one value from each of
// several independent columns, for example systolic/diastolic blood pressure.
type MultipleComponentInputField struct {
	InputField
	Components [][]Choice
	// Separator is shown between components, such as "/".
	Separator string
}

// NewMultipleComponentInputField builds a multiple component field.
func NewMultipleComponentInputField(identifier string, base BaseType, components [][]Choice, separator string) *MultipleComponentInputField {
	return &MultipleComponentInputField{
		InputField: InputField{Identifier: identifier, DataType: Collection(CollectionMultipleComponent, base)},
		Components: components,
		Separator:  separator,
	}
}

func (f *MultipleComponentInputField) Input() *InputField { return &f.InputField }

func (f *MultipleComponentInputField) Validate() error {
	if err := f.validate(); err != nil {
		return withContext(err, f.Identifier, "")
	}
	if f.DataType.Collection != CollectionMultipleComponent {
		return fieldError(ErrInvalidConfiguration, f.Identifier, "dataType", "%s is not a multiple component data type", f.DataType)
	}
	if len(f.Components) == 0 {
		return fieldError(ErrInvalidConfiguration, f.Identifier, "choices", "multiple component field has no components")
	}
	want := ChoiceValueKind(f.DataType)
	for i, column := range f.Components {
		if len(column) == 0 {
			return fieldError(ErrInvalidConfiguration, f.Identifier, "choices", "component %d has no choices", i)
		}
		if err := validateChoices(column, want, "choices"); err != nil {
			return withContext(fmt.Errorf("component %d: %w", i, err), f.Identifier, "")
		}
	}
	return nil
}

func (f MultipleComponentInputField) MarshalJSON() ([]byte, error) {
	doc, err := f.InputField.document()
	if err != nil {
		return nil, err
	}
	doc.Choices = f.Components
	doc.Separator = f.Separator
	return json.Marshal(doc)
}

func (f *MultipleComponentInputField) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeMultipleComponentInputField(data)
	if err != nil {
		return err
	}
	*f = *decoded
	return nil
}

// DecodeMultipleComponentInputField decodes a multiple component field with
// one choice list per component column.
func DecodeMultipleComponentInputField(data []byte) (*MultipleComponentInputField, error) {
	keys, identifier, err := fieldKeys(data)
	if err != nil {
		return nil, err
	}
	base, err := decodeInputFieldKeys(keys)
	if err != nil {
		return nil, withContext(err, identifier, "")
	}
	raw, ok := keys["choices"]
	if !ok || isNull(raw) {
		return nil, fieldError(ErrMissingRequiredField, identifier, "choices", "multiple component field has no choices")
	}
	components, err := DecodeComponentChoices(raw, ChoiceValueKind(base.DataType))
	if err != nil {
		return nil, withContext(err, identifier, "choices")
	}
	f := &MultipleComponentInputField{InputField: *base, Components: components}
	if err := decodeOptionalString(keys, "separator", &f.Separator); err != nil {
		return nil, withContext(err, identifier, "")
	}
	return f, nil
}
