package form

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Range bounds the answer of a numeric or date field. It is either a
// *DecimalRange or a *DateRange.
type Range interface {
	RangeKind() RangeKind
	// Formatter returns the display hint implied by the range, if any.
	Formatter() *Formatter
	validate() error
}

// FormatterKind selects how a previously entered answer is displayed.
type FormatterKind string

const (
	FormatterNumber FormatterKind = "number"
	FormatterDate   FormatterKind = "date"
)

// Formatter is a display hint for the UI layer.
type Formatter struct {
	Kind                  FormatterKind
	MaximumFractionDigits int
	Unit                  string
	DateFormat            string
}

// DecimalRange bounds integer, decimal and year answers.
type DecimalRange struct {
	Minimum       *float64
	Maximum       *float64
	StepInterval  *float64
	Unit          string
	MaximumDigits *int
}

func (r *DecimalRange) RangeKind() RangeKind { return RangeDecimal }

func (r *DecimalRange) Formatter() *Formatter {
	if r.MaximumDigits == nil && r.Unit == "" {
		return nil
	}
	f := &Formatter{Kind: FormatterNumber, Unit: r.Unit}
	if r.MaximumDigits != nil {
		f.MaximumFractionDigits = *r.MaximumDigits
	}
	return f
}

func (r *DecimalRange) validate() error {
	if r.Minimum != nil && r.Maximum != nil && *r.Minimum > *r.Maximum {
		return fieldError(ErrInvalidConfiguration, "", "range", "minimumValue %v is greater than maximumValue %v", *r.Minimum, *r.Maximum)
	}
	if r.StepInterval != nil && *r.StepInterval <= 0 {
		return fieldError(ErrInvalidConfiguration, "", "stepInterval", "must be positive, got %v", *r.StepInterval)
	}
	if r.MaximumDigits != nil && *r.MaximumDigits < 0 {
		return fieldError(ErrInvalidConfiguration, "", "maximumDigits", "must not be negative, got %d", *r.MaximumDigits)
	}
	return nil
}

// Contains reports whether v lies within the bounds.
func (r *DecimalRange) Contains(v float64) bool {
	if r.Minimum != nil && v < *r.Minimum {
		return false
	}
	if r.Maximum != nil && v > *r.Maximum {
		return false
	}
	return true
}

type decimalRangeDoc struct {
	MinimumValue  json.RawMessage `json:"minimumValue,omitempty"`
	MaximumValue  json.RawMessage `json:"maximumValue,omitempty"`
	StepInterval  json.RawMessage `json:"stepInterval,omitempty"`
	Unit          *string         `json:"unit,omitempty"`
	MaximumDigits *int            `json:"maximumDigits,omitempty"`
}

func (r DecimalRange) MarshalJSON() ([]byte, error) {
	var doc decimalRangeDoc
	var err error
	if doc.MinimumValue, err = encodeBound(r.Minimum); err != nil {
		return nil, err
	}
	if doc.MaximumValue, err = encodeBound(r.Maximum); err != nil {
		return nil, err
	}
	if doc.StepInterval, err = encodeBound(r.StepInterval); err != nil {
		return nil, err
	}
	if r.Unit != "" {
		doc.Unit = &r.Unit
	}
	doc.MaximumDigits = r.MaximumDigits
	return json.Marshal(doc)
}

func encodeBound(f *float64) (json.RawMessage, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(*f)
}

// decodeDecimalRange decodes a numeric range. Integer and year fields require
// integral bounds.
func decodeDecimalRange(data []byte, base BaseType) (*DecimalRange, error) {
	var doc decimalRangeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &FieldError{Kind: ErrInvalidFormat, Key: "range", Detail: err.Error()}
	}
	integral := base == BaseInteger || base == BaseYear
	out := &DecimalRange{MaximumDigits: doc.MaximumDigits}
	bounds := []struct {
		key string
		raw json.RawMessage
		dst **float64
	}{
		{"minimumValue", doc.MinimumValue, &out.Minimum},
		{"maximumValue", doc.MaximumValue, &out.Maximum},
		{"stepInterval", doc.StepInterval, &out.StepInterval},
	}
	for _, b := range bounds {
		if len(b.raw) == 0 {
			continue
		}
		v, err := DecodeValue(b.raw, KindDecimal, "")
		if err != nil {
			return nil, withContext(err, "", b.key)
		}
		f, ok := v.DecimalValue()
		if !ok {
			continue
		}
		if integral && f != math.Trunc(f) {
			return nil, fieldError(ErrTypeMismatch, "", b.key, "%v is not an integer", f)
		}
		*b.dst = &f
	}
	if doc.Unit != nil {
		out.Unit = *doc.Unit
	}
	return out, nil
}

// DateRange bounds date answers and carries the coding format used to
// encode them.
type DateRange struct {
	MinimumDate  *time.Time
	MaximumDate  *time.Time
	CodingFormat string
}

func (r *DateRange) RangeKind() RangeKind { return RangeDate }

func (r *DateRange) Formatter() *Formatter {
	if r.CodingFormat == "" {
		return nil
	}
	return &Formatter{Kind: FormatterDate, DateFormat: r.CodingFormat}
}

// CalendarComponents are the date components the coding format carries.
func (r *DateRange) CalendarComponents() []CalendarComponent {
	return CalendarComponentsFor(r.CodingFormat)
}

func (r *DateRange) validate() error {
	if r.MinimumDate != nil && r.MaximumDate != nil && r.MinimumDate.After(*r.MaximumDate) {
		return fieldError(ErrInvalidConfiguration, "", "range", "minimumDate %s is after maximumDate %s",
			r.MinimumDate.Format(time.RFC3339), r.MaximumDate.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t lies within the bounds.
func (r *DateRange) Contains(t time.Time) bool {
	if r.MinimumDate != nil && t.Before(*r.MinimumDate) {
		return false
	}
	if r.MaximumDate != nil && t.After(*r.MaximumDate) {
		return false
	}
	return true
}

type dateRangeDoc struct {
	MinimumDate  json.RawMessage `json:"minimumDate,omitempty"`
	MaximumDate  json.RawMessage `json:"maximumDate,omitempty"`
	CodingFormat *string         `json:"codingFormat,omitempty"`
}

func (r DateRange) MarshalJSON() ([]byte, error) {
	var doc dateRangeDoc
	var err error
	if r.MinimumDate != nil {
		if doc.MinimumDate, err = Date(*r.MinimumDate).EncodeWithPattern(r.CodingFormat); err != nil {
			return nil, err
		}
	}
	if r.MaximumDate != nil {
		if doc.MaximumDate, err = Date(*r.MaximumDate).EncodeWithPattern(r.CodingFormat); err != nil {
			return nil, err
		}
	}
	if r.CodingFormat != "" {
		doc.CodingFormat = &r.CodingFormat
	}
	return json.Marshal(doc)
}

func decodeDateRange(data []byte) (*DateRange, error) {
	var doc dateRangeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &FieldError{Kind: ErrInvalidFormat, Key: "range", Detail: err.Error()}
	}
	out := &DateRange{}
	if doc.CodingFormat != nil {
		out.CodingFormat = *doc.CodingFormat
	}
	bounds := []struct {
		key string
		raw json.RawMessage
		dst **time.Time
	}{
		{"minimumDate", doc.MinimumDate, &out.MinimumDate},
		{"maximumDate", doc.MaximumDate, &out.MaximumDate},
	}
	for _, b := range bounds {
		if len(b.raw) == 0 {
			continue
		}
		v, err := DecodeValue(b.raw, KindDate, out.CodingFormat)
		if err != nil {
			return nil, withContext(err, "", b.key)
		}
		if t, ok := v.DateValue(); ok {
			*b.dst = &t
		}
	}
	return out, nil
}

// decodeRange picks the concrete range for the data type. A nil document
// yields no range.
func decodeRange(data json.RawMessage, dt DataType) (Range, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	kinds := LegalRangeKinds(dt)
	if len(kinds) == 0 {
		return nil, fieldError(ErrTypeMismatch, "", "range", "%s fields do not take a range", dt)
	}
	for i, kind := range kinds {
		last := i == len(kinds)-1
		switch kind {
		case RangeDate:
			r, err := decodeDateRange(data)
			if err != nil {
				return nil, err
			}
			// A year range is only a date range when one of its bounds is set.
			if last || r.MinimumDate != nil || r.MaximumDate != nil {
				if err := rejectRangeKeys(data, RangeDate, decimalRangeKeys); err != nil {
					return nil, err
				}
				return r, nil
			}
		case RangeDecimal:
			if err := rejectRangeKeys(data, RangeDecimal, dateRangeKeys); err != nil {
				return nil, err
			}
			return decodeDecimalRange(data, dt.Base)
		default:
			return nil, fmt.Errorf("%w: unknown range kind %q", ErrInvalidType, kind)
		}
	}
	return nil, nil
}

var (
	decimalRangeKeys = []string{"minimumValue", "maximumValue", "stepInterval", "unit", "maximumDigits"}
	dateRangeKeys    = []string{"minimumDate", "maximumDate"}
)

// rejectRangeKeys fails when the range document sets a key that belongs to
// the other range kind.
func rejectRangeKeys(data []byte, kind RangeKind, foreign []string) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return &FieldError{Kind: ErrInvalidFormat, Key: "range", Detail: err.Error()}
	}
	for _, key := range foreign {
		if raw, ok := keys[key]; ok && !isNull(raw) {
			return fieldError(ErrTypeMismatch, "", key, "%s does not apply to a %s range", key, kind)
		}
	}
	return nil
}
