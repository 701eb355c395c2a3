package result

import (
	"fmt"

	"github.com/liamcoop/survey/form"
)

// BaseType is the coding type of an answer value.
type BaseType string

const (
	BaseBoolean BaseType = "boolean"
	BaseInteger BaseType = "integer"
	BaseDecimal BaseType = "decimal"
	BaseDate    BaseType = "date"
	BaseString  BaseType = "string"
)

// Kind is the value kind of answers with this base type.
func (b BaseType) Kind() form.Kind {
	switch b {
	case BaseBoolean:
		return form.KindBool
	case BaseInteger:
		return form.KindInt
	case BaseDecimal:
		return form.KindDecimal
	case BaseDate:
		return form.KindDate
	case BaseString:
		return form.KindString
	default:
		return form.KindAbsent
	}
}

func baseTypeFor(k form.Kind) (BaseType, error) {
	switch k {
	case form.KindBool:
		return BaseBoolean, nil
	case form.KindInt:
		return BaseInteger, nil
	case form.KindDecimal:
		return BaseDecimal, nil
	case form.KindDate:
		return BaseDate, nil
	case form.KindString:
		return BaseString, nil
	default:
		return "", fmt.Errorf("%w: no answer base type for %s values", form.ErrInvalidType, k)
	}
}

// SequenceType marks answers that hold more than one value.
type SequenceType string

const (
	SequenceNone  SequenceType = ""
	SequenceArray SequenceType = "array"
)

// AnswerType describes how an answer value is coded.
type AnswerType struct {
	BaseType          BaseType     `json:"baseType"`
	SequenceType      SequenceType `json:"sequenceType,omitempty"`
	DateFormat        string       `json:"dateFormat,omitempty"`
	Unit              string       `json:"unit,omitempty"`
	SequenceSeparator string       `json:"sequenceSeparator,omitempty"`
}

// IsArray reports whether answers of this type are sequences.
func (a AnswerType) IsArray() bool { return a.SequenceType == SequenceArray }

// AnswerTypeFor derives the answer type produced by an input field. Multiple
// choice and multiple component fields answer with arrays; a multiple
// component field keeps its separator.
func AnswerTypeFor(field form.Field) (AnswerType, error) {
	input := field.Input()
	dt := input.DataType
	base, err := baseTypeFor(form.ChoiceValueKind(dt))
	if err != nil {
		return AnswerType{}, fmt.Errorf("field %q: %w", input.Identifier, err)
	}

	at := AnswerType{BaseType: base}
	switch dt.Collection {
	case form.CollectionMultipleChoice:
		at.SequenceType = SequenceArray
	case form.CollectionMultipleComponent:
		at.SequenceType = SequenceArray
		if mc, ok := field.(*form.MultipleComponentInputField); ok {
			at.SequenceSeparator = mc.Separator
		}
	}

	switch r := input.Range.(type) {
	case *form.DateRange:
		if base == BaseDate {
			at.DateFormat = r.CodingFormat
		}
	case *form.DecimalRange:
		at.Unit = r.Unit
	}
	return at, nil
}
