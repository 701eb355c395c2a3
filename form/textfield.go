package form

import (
	"encoding/json"
	"fmt"
	"regexp"
	"unicode/utf8"
)

// KeyboardType hints which keyboard a text entry should show.
type KeyboardType string

const (
	KeyboardDefault               KeyboardType = "default"
	KeyboardASCIICapable          KeyboardType = "asciiCapable"
	KeyboardNumbersAndPunctuation KeyboardType = "numbersAndPunctuation"
	KeyboardURL                   KeyboardType = "URL"
	KeyboardNumberPad             KeyboardType = "numberPad"
	KeyboardPhonePad              KeyboardType = "phonePad"
	KeyboardNamePhonePad          KeyboardType = "namePhonePad"
	KeyboardEmailAddress          KeyboardType = "emailAddress"
	KeyboardDecimalPad            KeyboardType = "decimalPad"
	KeyboardTwitter               KeyboardType = "twitter"
	KeyboardWebSearch             KeyboardType = "webSearch"
	KeyboardASCIICapableNumberPad KeyboardType = "asciiCapableNumberPad"
)

var keyboardTypes = map[KeyboardType]bool{
	KeyboardDefault:               true,
	KeyboardASCIICapable:          true,
	KeyboardNumbersAndPunctuation: true,
	KeyboardURL:                   true,
	KeyboardNumberPad:             true,
	KeyboardPhonePad:              true,
	KeyboardNamePhonePad:          true,
	KeyboardEmailAddress:          true,
	KeyboardDecimalPad:            true,
	KeyboardTwitter:               true,
	KeyboardWebSearch:             true,
	KeyboardASCIICapableNumberPad: true,
}

// Autocapitalization controls automatic capitalization of typed text.
type Autocapitalization string

const (
	AutocapitalizeNone          Autocapitalization = "none"
	AutocapitalizeWords         Autocapitalization = "words"
	AutocapitalizeSentences     Autocapitalization = "sentences"
	AutocapitalizeAllCharacters Autocapitalization = "allCharacters"
)

var autocapitalizations = map[Autocapitalization]bool{
	AutocapitalizeNone:          true,
	AutocapitalizeWords:         true,
	AutocapitalizeSentences:     true,
	AutocapitalizeAllCharacters: true,
}

// TextFieldOptions constrain free text entry for a field.
type TextFieldOptions struct {
	ValidationRegex    string
	InvalidMessage     string
	MaximumLength      int // 0 means unlimited
	Autocapitalization Autocapitalization
	KeyboardType       KeyboardType
	IsSecureTextEntry  bool
}

// DefaultTextFieldOptions returns options with every setting at its default.
func DefaultTextFieldOptions() *TextFieldOptions {
	return &TextFieldOptions{
		Autocapitalization: AutocapitalizeNone,
		KeyboardType:       KeyboardDefault,
	}
}

// defaultTextFieldOptionsFor synthesizes options for fields that do not
// declare any. Only numeric fields get options.
func defaultTextFieldOptionsFor(b BaseType) *TextFieldOptions {
	keyboard, ok := DefaultKeyboardType(b)
	if !ok {
		return nil
	}
	opts := DefaultTextFieldOptions()
	opts.KeyboardType = keyboard
	return opts
}

type textFieldOptionsDoc struct {
	ValidationRegex        *string `json:"validationRegex,omitempty"`
	InvalidMessage         *string `json:"invalidMessage,omitempty"`
	MaximumLength          *int    `json:"maximumLength,omitempty"`
	AutocapitalizationType *string `json:"autocapitalizationType,omitempty"`
	KeyboardType           *string `json:"keyboardType,omitempty"`
	IsSecureTextEntry      *bool   `json:"isSecureTextEntry,omitempty"`
}

func (o *TextFieldOptions) UnmarshalJSON(data []byte) error {
	var doc textFieldOptionsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return &FieldError{Kind: ErrInvalidFormat, Key: "textFieldOptions", Detail: err.Error()}
	}
	out := DefaultTextFieldOptions()
	if doc.ValidationRegex != nil {
		if _, err := regexp.Compile(*doc.ValidationRegex); err != nil {
			return &FieldError{Kind: ErrInvalidFormat, Key: "validationRegex", Detail: err.Error()}
		}
		out.ValidationRegex = *doc.ValidationRegex
	}
	if doc.InvalidMessage != nil {
		out.InvalidMessage = *doc.InvalidMessage
	}
	if doc.MaximumLength != nil {
		if *doc.MaximumLength < 0 {
			return fieldError(ErrInvalidFormat, "", "maximumLength", "must not be negative, got %d", *doc.MaximumLength)
		}
		out.MaximumLength = *doc.MaximumLength
	}
	if doc.AutocapitalizationType != nil {
		a := Autocapitalization(*doc.AutocapitalizationType)
		if !autocapitalizations[a] {
			return fieldError(ErrInvalidType, "", "autocapitalizationType", "unknown value %q", a)
		}
		out.Autocapitalization = a
	}
	if doc.KeyboardType != nil {
		k := KeyboardType(*doc.KeyboardType)
		if !keyboardTypes[k] {
			return fieldError(ErrInvalidType, "", "keyboardType", "unknown value %q", k)
		}
		out.KeyboardType = k
	}
	if doc.IsSecureTextEntry != nil {
		out.IsSecureTextEntry = *doc.IsSecureTextEntry
	}
	*o = *out
	return nil
}

// MarshalJSON omits settings that are at their default.
func (o TextFieldOptions) MarshalJSON() ([]byte, error) {
	var doc textFieldOptionsDoc
	if o.ValidationRegex != "" {
		doc.ValidationRegex = &o.ValidationRegex
	}
	if o.InvalidMessage != "" {
		doc.InvalidMessage = &o.InvalidMessage
	}
	if o.MaximumLength != 0 {
		doc.MaximumLength = &o.MaximumLength
	}
	if o.Autocapitalization != "" && o.Autocapitalization != AutocapitalizeNone {
		s := string(o.Autocapitalization)
		doc.AutocapitalizationType = &s
	}
	if o.KeyboardType != "" && o.KeyboardType != KeyboardDefault {
		s := string(o.KeyboardType)
		doc.KeyboardType = &s
	}
	if o.IsSecureTextEntry {
		doc.IsSecureTextEntry = &o.IsSecureTextEntry
	}
	return json.Marshal(doc)
}

// ValidateText checks typed text against the maximum length and validation
// pattern. The returned error carries InvalidMessage when one is set.
func (o *TextFieldOptions) ValidateText(text string) error {
	if o == nil {
		return nil
	}
	if o.MaximumLength > 0 && utf8.RuneCountInString(text) > o.MaximumLength {
		return fmt.Errorf("%w: %s", ErrInvalidFormat, o.message(fmt.Sprintf("text exceeds %d characters", o.MaximumLength)))
	}
	if o.ValidationRegex == "" {
		return nil
	}
	re, err := regexp.Compile(o.ValidationRegex)
	if err != nil {
		return fmt.Errorf("%w: validation regex: %v", ErrInvalidFormat, err)
	}
	if !re.MatchString(text) {
		return fmt.Errorf("%w: %s", ErrInvalidFormat, o.message(fmt.Sprintf("text does not match %q", o.ValidationRegex)))
	}
	return nil
}

func (o *TextFieldOptions) message(fallback string) string {
	if o.InvalidMessage != "" {
		return o.InvalidMessage
	}
	return fallback
}
