package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
)

// Choice is one selectable answer. An absent Value means the user chose to
// skip the question ("prefer not to answer").
type Choice struct {
	Value       Value
	Text        string
	Detail      string
	Icon        string
	IsExclusive bool
}

// HasIcon reports whether an icon was declared for the choice.
func (c Choice) HasIcon() bool { return c.Icon != "" }

// Matches reports whether the choice carries v. Values of another kind never
// match.
func (c Choice) Matches(v Value) bool {
	eq, err := c.Value.Equal(v)
	return err == nil && eq
}

// Size is the requested size of an icon, in points.
type Size struct {
	Width  float64
	Height float64
}

// IconFetcher resolves icon names into images. Implementations must call
// deliver exactly once per FetchIcon call, from any goroutine. There is no
// cancellation: callers that lose interest ignore the callback.
type IconFetcher interface {
	FetchIcon(name string, size Size, deliver func(image.Image))
}

// FetchIcon asks fetcher for the choice icon. Choices without an icon, or a
// nil fetcher, deliver nil immediately.
func (c Choice) FetchIcon(fetcher IconFetcher, size Size, deliver func(image.Image)) {
	if !c.HasIcon() || fetcher == nil {
		deliver(nil)
		return
	}
	fetcher.FetchIcon(c.Icon, size, deliver)
}

type choiceDoc struct {
	Value       json.RawMessage `json:"value"`
	Text        *string         `json:"text,omitempty"`
	Detail      *string         `json:"detail,omitempty"`
	Icon        *string         `json:"icon,omitempty"`
	IsExclusive *bool           `json:"isExclusive,omitempty"`
}

func (c Choice) MarshalJSON() ([]byte, error) {
	value, err := c.Value.MarshalJSON()
	if err != nil {
		return nil, err
	}
	doc := choiceDoc{Value: value}
	if c.Text != "" {
		doc.Text = &c.Text
	}
	if c.Detail != "" {
		doc.Detail = &c.Detail
	}
	if c.Icon != "" {
		doc.Icon = &c.Icon
	}
	if c.IsExclusive {
		doc.IsExclusive = &c.IsExclusive
	}
	return json.Marshal(doc)
}

// DecodeChoice decodes one choice whose value must be of kind want. A bare
// scalar is both the value and the display text.
func DecodeChoice(data json.RawMessage, want Kind) (Choice, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		v, err := DecodeValue(trimmed, want, "")
		if err != nil {
			return Choice{}, withContext(err, "", "choices")
		}
		return Choice{Value: v, Text: v.Text()}, nil
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		return Choice{}, &FieldError{Kind: ErrInvalidFormat, Key: "choices", Detail: err.Error()}
	}
	if _, ok := keys["value"]; !ok {
		return Choice{}, fieldError(ErrMissingRequiredField, "", "value", "choice has no value")
	}
	var doc choiceDoc
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return Choice{}, &FieldError{Kind: ErrInvalidFormat, Key: "choices", Detail: err.Error()}
	}
	v, err := DecodeValue(doc.Value, want, "")
	if err != nil {
		return Choice{}, withContext(err, "", "value")
	}
	c := Choice{Value: v}
	if doc.Text != nil {
		c.Text = *doc.Text
	}
	if doc.Detail != nil {
		c.Detail = *doc.Detail
	}
	if doc.Icon != nil {
		c.Icon = *doc.Icon
	}
	if doc.IsExclusive != nil {
		c.IsExclusive = *doc.IsExclusive
	}
	return c, nil
}

// DecodeChoiceList decodes an ordered list of choices for the given kind.
func DecodeChoiceList(data json.RawMessage, want Kind) ([]Choice, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fieldError(ErrInvalidFormat, "", "choices", "choices must be a list")
	}
	out := make([]Choice, 0, len(entries))
	for i, entry := range entries {
		c, err := DecodeChoice(entry, want)
		if err != nil {
			return nil, fmt.Errorf("choice %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// DecodeComponentChoices decodes a list of choice lists, one per component
// column, each checked against want independently.
func DecodeComponentChoices(data json.RawMessage, want Kind) ([][]Choice, error) {
	var columns []json.RawMessage
	if err := json.Unmarshal(data, &columns); err != nil {
		return nil, fieldError(ErrInvalidFormat, "", "choices", "component choices must be a list of lists")
	}
	out := make([][]Choice, 0, len(columns))
	for i, column := range columns {
		choices, err := DecodeChoiceList(column, want)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		out = append(out, choices)
	}
	return out, nil
}

func validateChoices(choices []Choice, want Kind, key string) error {
	for i, c := range choices {
		if !c.Value.IsAbsent() && c.Value.Kind() != want {
			return fieldError(ErrInvalidConfiguration, "", key, "choice %d has a %s value, expected %s", i, c.Value.Kind(), want)
		}
	}
	return nil
}
