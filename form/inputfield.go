package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
)

// Field is implemented by every decoded input field variant: *InputField,
// *ChoiceInputField and *MultipleComponentInputField.
type Field interface {
	Input() *InputField
	Validate() error
}

// InputField describes one question: its data type, presentation hints and
// the survey rules that branch on its answer.
type InputField struct {
	Identifier       string
	Prompt           string
	PlaceholderText  string
	Optional         bool
	DataType         DataType
	UIHint           UIHint
	Range            Range
	TextFieldOptions *TextFieldOptions
	SurveyRules      []SurveyRule

	// FormatterHint overrides the formatter derived from the range.
	FormatterHint *Formatter
}

// NewInputField returns a field with the given identifier and data type.
func NewInputField(identifier string, dataType DataType) *InputField {
	return &InputField{Identifier: identifier, DataType: dataType}
}

func (f *InputField) Input() *InputField { return f }

// Formatter returns the explicit formatter hint or the one implied by the
// range.
func (f *InputField) Formatter() *Formatter {
	if f.FormatterHint != nil {
		return f.FormatterHint
	}
	if f.Range != nil {
		return f.Range.Formatter()
	}
	return nil
}

// datePattern is the coding format used for date values of this field.
func (f *InputField) datePattern() string {
	if r, ok := f.Range.(*DateRange); ok {
		return r.CodingFormat
	}
	return ""
}

// Validate checks the field for configuration errors that decoding does not
// catch. It is idempotent and reports the first violation found.
func (f *InputField) Validate() error {
	return withContext(f.validate(), f.Identifier, "")
}

func (f *InputField) validate() error {
	if f.Identifier == "" {
		return fieldError(ErrInvalidConfiguration, "", "identifier", "identifier is empty")
	}
	if f.UIHint != "" && !IsLegalUIHint(f.DataType, f.UIHint) {
		return fieldError(ErrInvalidConfiguration, "", "uiHint", "%s is not a valid ui hint for %s", f.UIHint, f.DataType)
	}
	if f.Range != nil {
		if !rangeKindAllowed(f.DataType, f.Range.RangeKind()) {
			return fieldError(ErrInvalidConfiguration, "", "range", "%s range is not valid for %s", f.Range.RangeKind(), f.DataType)
		}
		if err := f.Range.validate(); err != nil {
			return err
		}
	}
	if f.TextFieldOptions != nil && f.TextFieldOptions.ValidationRegex != "" {
		if _, err := regexp.Compile(f.TextFieldOptions.ValidationRegex); err != nil {
			return fieldError(ErrInvalidConfiguration, "", "validationRegex", "%v", err)
		}
	}
	want := f.DataType.Base.ValueKind()
	for i, rule := range f.SurveyRules {
		if err := rule.validateFor(want); err != nil {
			return fmt.Errorf("survey rule %d: %w", i, err)
		}
	}
	return nil
}

func rangeKindAllowed(dt DataType, kind RangeKind) bool {
	for _, k := range LegalRangeKinds(dt) {
		if k == kind {
			return true
		}
	}
	return false
}

type inputFieldDoc struct {
	Identifier       string            `json:"identifier"`
	Prompt           string            `json:"prompt,omitempty"`
	PlaceholderText  string            `json:"placeholderText,omitempty"`
	DataType         DataType          `json:"dataType"`
	UIHint           UIHint            `json:"uiHint,omitempty"`
	Optional         bool              `json:"optional,omitempty"`
	Range            any               `json:"range,omitempty"`
	TextFieldOptions *TextFieldOptions `json:"textFieldOptions,omitempty"`
	SurveyRules      []json.RawMessage `json:"surveyRules,omitempty"`
	Choices          any               `json:"choices,omitempty"`
	AllowOther       bool              `json:"allowOther,omitempty"`
	Separator        string            `json:"separator,omitempty"`
}

func (f InputField) document() (inputFieldDoc, error) {
	doc := inputFieldDoc{
		Identifier:       f.Identifier,
		Prompt:           f.Prompt,
		PlaceholderText:  f.PlaceholderText,
		DataType:         f.DataType,
		UIHint:           f.UIHint,
		Optional:         f.Optional,
		TextFieldOptions: f.TextFieldOptions,
	}
	if f.Range != nil {
		doc.Range = f.Range
	}
	for _, rule := range f.SurveyRules {
		raw, err := json.Marshal(rule)
		if err != nil {
			return inputFieldDoc{}, err
		}
		doc.SurveyRules = append(doc.SurveyRules, raw)
	}
	return doc, nil
}

// MarshalJSON encodes the field so that decoding the output yields an equal
// field. Rules are always written as a surveyRules list.
func (f InputField) MarshalJSON() ([]byte, error) {
	doc, err := f.document()
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func (f *InputField) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeInputField(data)
	if err != nil {
		return err
	}
	*f = *decoded
	return nil
}

// fieldKeys splits an input field document into its top-level keys.
func fieldKeys(data []byte) (map[string]json.RawMessage, string, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, "", &FieldError{Kind: ErrInvalidFormat, Detail: "input field must be an object: " + err.Error()}
	}
	// The identifier is decoded last but is needed for error context.
	var identifier string
	if raw, ok := keys["identifier"]; ok {
		_ = json.Unmarshal(raw, &identifier)
	}
	return keys, identifier, nil
}

// DecodeInputField decodes an input field document. Decoding is ordered:
// the data type is read first and decides which forms of uiHint, range,
// textFieldOptions and survey rules are legal.
func DecodeInputField(data []byte) (*InputField, error) {
	keys, identifier, err := fieldKeys(data)
	if err != nil {
		return nil, err
	}
	f, err := decodeInputFieldKeys(keys)
	if err != nil {
		return nil, withContext(err, identifier, "")
	}
	return f, nil
}

func decodeInputFieldKeys(keys map[string]json.RawMessage) (*InputField, error) {
	f := &InputField{}

	dt, err := decodeDataType(keys)
	if err != nil {
		return nil, err
	}
	f.DataType = dt

	if raw, ok := keys["uiHint"]; ok && !isNull(raw) {
		var hint string
		if err := json.Unmarshal(raw, &hint); err != nil {
			return nil, fieldError(ErrInvalidType, "", "uiHint", "ui hint must be a string")
		}
		if !IsLegalUIHint(dt, UIHint(hint)) {
			return nil, fieldError(ErrInvalidType, "", "uiHint", "%s is not a valid ui hint for %s", hint, dt)
		}
		f.UIHint = UIHint(hint)
	}

	if f.Range, err = decodeRange(keys["range"], dt); err != nil {
		return nil, withContext(err, "", "range")
	}

	if raw, ok := keys["textFieldOptions"]; ok && !isNull(raw) {
		var opts TextFieldOptions
		if err := json.Unmarshal(raw, &opts); err != nil {
			return nil, withContext(err, "", "textFieldOptions")
		}
		f.TextFieldOptions = &opts
	} else if !dt.IsCollection() {
		f.TextFieldOptions = defaultTextFieldOptionsFor(dt.Base)
	}

	if f.SurveyRules, err = decodeSurveyRules(keys, dt.Base.ValueKind(), f.datePattern()); err != nil {
		return nil, err
	}

	raw, ok := keys["identifier"]
	if !ok || isNull(raw) {
		return nil, fieldError(ErrMissingRequiredField, "", "identifier", "input field has no identifier")
	}
	if err := json.Unmarshal(raw, &f.Identifier); err != nil {
		return nil, fieldError(ErrInvalidFormat, "", "identifier", "identifier must be a string")
	}
	if err := decodeOptionalString(keys, "prompt", &f.Prompt); err != nil {
		return nil, err
	}
	if err := decodeOptionalString(keys, "placeholderText", &f.PlaceholderText); err != nil {
		return nil, err
	}
	if raw, ok := keys["optional"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &f.Optional); err != nil {
			return nil, fieldError(ErrInvalidFormat, "", "optional", "optional must be a boolean")
		}
	}
	return f, nil
}

func decodeDataType(keys map[string]json.RawMessage) (DataType, error) {
	raw, ok := keys["dataType"]
	if !ok || isNull(raw) {
		return DataType{}, fieldError(ErrMissingRequiredField, "", "dataType", "input field has no data type")
	}
	var dt DataType
	if err := json.Unmarshal(raw, &dt); err != nil {
		return DataType{}, withContext(err, "", "dataType")
	}
	return dt, nil
}

// decodeSurveyRules reads either the surveyRules list or a single inline
// rule. The two forms may not be mixed in one document, and a malformed
// inline rule is an error rather than "no rule".
func decodeSurveyRules(keys map[string]json.RawMessage, want Kind, datePattern string) ([]SurveyRule, error) {
	list, hasList := keys["surveyRules"]
	inline := hasInlineRule(keys)
	if hasList && inline {
		return nil, fieldError(ErrInvalidFormat, "", "surveyRules", "surveyRules cannot be combined with inline rule keys")
	}
	if hasList {
		if isNull(list) {
			return nil, nil
		}
		var entries []json.RawMessage
		if err := json.Unmarshal(list, &entries); err != nil {
			return nil, fieldError(ErrInvalidFormat, "", "surveyRules", "surveyRules must be a list")
		}
		rules := make([]SurveyRule, 0, len(entries))
		for i, entry := range entries {
			rule, err := DecodeSurveyRule(entry, want, datePattern)
			if err != nil {
				return nil, fmt.Errorf("survey rule %d: %w", i, err)
			}
			rules = append(rules, rule)
		}
		return rules, nil
	}
	if !inline {
		return nil, nil
	}
	rule, err := decodeRuleKeys(keys, want, datePattern)
	if err != nil {
		return nil, err
	}
	return []SurveyRule{rule}, nil
}

func decodeOptionalString(keys map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := keys[key]
	if !ok || isNull(raw) {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fieldError(ErrInvalidFormat, "", key, "%s must be a string", key)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// DecodeField decodes any input field document into the variant selected by
// its data type: choice collections become *ChoiceInputField, multiple
// components become *MultipleComponentInputField, everything else
// *InputField.
func DecodeField(data []byte) (Field, error) {
	keys, identifier, err := fieldKeys(data)
	if err != nil {
		return nil, err
	}
	dt, err := decodeDataType(keys)
	if err != nil {
		return nil, withContext(err, identifier, "")
	}
	switch dt.Collection {
	case CollectionSingleChoice, CollectionMultipleChoice:
		return DecodeChoiceInputField(data)
	case CollectionMultipleComponent:
		return DecodeMultipleComponentInputField(data)
	default:
		return DecodeInputField(data)
	}
}
