package form

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BaseType is the scalar type of an input field's answer.
type BaseType string

const (
	BaseBoolean BaseType = "boolean"
	BaseInteger BaseType = "integer"
	BaseDecimal BaseType = "decimal"
	BaseString  BaseType = "string"
	BaseDate    BaseType = "date"
	BaseYear    BaseType = "year"
)

var baseTypes = map[BaseType]bool{
	BaseBoolean: true,
	BaseInteger: true,
	BaseDecimal: true,
	BaseString:  true,
	BaseDate:    true,
	BaseYear:    true,
}

// ValueKind is the kind of value an answer of this base type holds. Years are
// integers.
func (b BaseType) ValueKind() Kind {
	switch b {
	case BaseBoolean:
		return KindBool
	case BaseInteger, BaseYear:
		return KindInt
	case BaseDecimal:
		return KindDecimal
	case BaseDate:
		return KindDate
	case BaseString:
		return KindString
	default:
		return KindAbsent
	}
}

// CollectionType marks a field whose answer is picked from choices.
type CollectionType string

const (
	CollectionNone              CollectionType = ""
	CollectionSingleChoice      CollectionType = "singleChoice"
	CollectionMultipleChoice    CollectionType = "multipleChoice"
	CollectionMultipleComponent CollectionType = "multipleComponent"
)

var collectionTypes = map[CollectionType]bool{
	CollectionSingleChoice:      true,
	CollectionMultipleChoice:    true,
	CollectionMultipleComponent: true,
}

// incompatible lists the collection/base pairs that cannot be expressed.
var incompatible = map[CollectionType]map[BaseType]bool{
	CollectionSingleChoice:      {BaseDate: true},
	CollectionMultipleChoice:    {BaseDate: true, BaseBoolean: true},
	CollectionMultipleComponent: {BaseBoolean: true},
}

// DataType is the discriminator that decides which range, choice and rule
// shapes an input field may carry.
type DataType struct {
	Base       BaseType
	Collection CollectionType
}

// Base returns a DataType without a collection.
func Base(b BaseType) DataType { return DataType{Base: b} }

// Collection returns a DataType for a choice collection over b.
func Collection(c CollectionType, b BaseType) DataType {
	return DataType{Base: b, Collection: c}
}

// IsCollection reports whether the field is answered by picking choices.
func (d DataType) IsCollection() bool { return d.Collection != CollectionNone }

func (d DataType) String() string {
	if d.Collection == CollectionNone {
		return string(d.Base)
	}
	return string(d.Collection) + "." + string(d.Base)
}

// ParseDataType parses "<base>", "<collection>.<base>" or a bare collection
// name, which implies a string base type.
func ParseDataType(s string) (DataType, error) {
	head, tail, dotted := strings.Cut(s, ".")
	if !dotted {
		if baseTypes[BaseType(s)] {
			return Base(BaseType(s)), nil
		}
		if collectionTypes[CollectionType(s)] {
			return Collection(CollectionType(s), BaseString), nil
		}
		return DataType{}, fmt.Errorf("%w: unknown data type %q", ErrInvalidType, s)
	}

	c, b := CollectionType(head), BaseType(tail)
	if !collectionTypes[c] {
		return DataType{}, fmt.Errorf("%w: unknown collection type %q", ErrInvalidType, head)
	}
	if !baseTypes[b] {
		return DataType{}, fmt.Errorf("%w: unknown base type %q", ErrInvalidType, tail)
	}
	if incompatible[c][b] {
		return DataType{}, fmt.Errorf("%w: %s cannot hold %s values", ErrInvalidType, c, b)
	}
	return Collection(c, b), nil
}

func (d DataType) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *DataType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: data type must be a string", ErrInvalidType)
	}
	parsed, err := ParseDataType(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// RangeKind names a concrete range representation.
type RangeKind string

const (
	RangeDecimal RangeKind = "decimal"
	RangeDate    RangeKind = "date"
)

// LegalRangeKinds returns the range kinds a field of this data type may use,
// in the order they are tried while decoding. Year fields accept a date range
// when one of its bounds is set and fall back to a decimal range.
func LegalRangeKinds(d DataType) []RangeKind {
	switch d.Base {
	case BaseInteger, BaseDecimal:
		return []RangeKind{RangeDecimal}
	case BaseDate:
		return []RangeKind{RangeDate}
	case BaseYear:
		return []RangeKind{RangeDate, RangeDecimal}
	default:
		return nil
	}
}

// ChoiceValueKind is the kind of value a choice must carry for this data type.
// Components of a multiple component date are integers (day, month, year...).
func ChoiceValueKind(d DataType) Kind {
	if d.Collection == CollectionMultipleComponent && d.Base == BaseDate {
		return KindInt
	}
	return d.Base.ValueKind()
}

// LegalUIHints returns the standard UI hints that may be used with d.
func LegalUIHints(d DataType) []UIHint {
	switch d.Collection {
	case CollectionMultipleChoice:
		return []UIHint{HintCheckbox, HintCombobox, HintList}
	case CollectionSingleChoice:
		return []UIHint{HintCheckbox, HintCombobox, HintList, HintPicker, HintRadioButton, HintSlider}
	case CollectionMultipleComponent:
		return []UIHint{HintPicker, HintTextfield}
	}
	switch d.Base {
	case BaseBoolean:
		return []UIHint{HintList, HintPicker, HintToggle}
	case BaseDate:
		return []UIHint{HintPicker, HintTextfield}
	case BaseInteger, BaseDecimal, BaseYear:
		return []UIHint{HintPicker, HintSlider, HintTextfield}
	case BaseString:
		return []UIHint{HintMultipleLine, HintTextfield}
	default:
		return nil
	}
}

// IsLegalUIHint reports whether hint may be used with d. Custom hints are
// always accepted.
func IsLegalUIHint(d DataType, hint UIHint) bool {
	if !hint.IsStandard() {
		return true
	}
	for _, h := range LegalUIHints(d) {
		if h == hint {
			return true
		}
	}
	return false
}

// DefaultKeyboardType is the keyboard hint used when a field does not supply
// text field options.
func DefaultKeyboardType(b BaseType) (KeyboardType, bool) {
	switch b {
	case BaseInteger:
		return KeyboardNumberPad, true
	case BaseDecimal:
		return KeyboardDecimalPad, true
	default:
		return "", false
	}
}
