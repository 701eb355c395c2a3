package form

import (
	"fmt"
	"strings"
	"time"
)

// CalendarComponent is a unit of a date that a coding format carries.
type CalendarComponent string

const (
	ComponentYear   CalendarComponent = "year"
	ComponentMonth  CalendarComponent = "month"
	ComponentDay    CalendarComponent = "day"
	ComponentHour   CalendarComponent = "hour"
	ComponentMinute CalendarComponent = "minute"
	ComponentSecond CalendarComponent = "second"
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01",
	"2006",
}

// patternTokens maps Unicode date pattern runs to Go layout elements. Longer
// runs must come first.
var patternTokens = []struct {
	token  string
	layout string
}{
	{"yyyy", "2006"},
	{"yy", "06"},
	{"y", "2006"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"M", "1"},
	{"dd", "02"},
	{"d", "2"},
	{"EEEE", "Monday"},
	{"EEE", "Mon"},
	{"E", "Mon"},
	{"HH", "15"},
	{"H", "15"},
	{"hh", "03"},
	{"h", "3"},
	{"mm", "04"},
	{"m", "4"},
	{"ss", "05"},
	{"s", "5"},
	{"SSS", "000"},
	{"SS", "00"},
	{"S", "0"},
	{"a", "PM"},
	{"ZZZZZ", "Z07:00"},
	{"XXX", "Z07:00"},
	{"ZZZ", "-0700"},
	{"ZZ", "-0700"},
	{"Z", "-0700"},
}

// GoLayout translates a Unicode date pattern such as "yyyy-MM-dd'T'HH:mm"
// into the equivalent Go reference layout. Quoted runs are literal.
func GoLayout(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); {
		if pattern[i] == '\'' {
			end := strings.IndexByte(pattern[i+1:], '\'')
			if end < 0 {
				b.WriteString(pattern[i+1:])
				break
			}
			b.WriteString(pattern[i+1 : i+1+end])
			i += end + 2
			continue
		}
		matched := false
		for _, tok := range patternTokens {
			if strings.HasPrefix(pattern[i:], tok.token) {
				b.WriteString(tok.layout)
				i += len(tok.token)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(pattern[i])
			i++
		}
	}
	return b.String()
}

// CalendarComponentsFor infers which calendar components a pattern encodes.
// An empty pattern means a full ISO 8601 timestamp.
func CalendarComponentsFor(pattern string) []CalendarComponent {
	if pattern == "" {
		return []CalendarComponent{ComponentYear, ComponentMonth, ComponentDay, ComponentHour, ComponentMinute, ComponentSecond}
	}
	unquoted := stripQuoted(pattern)
	var out []CalendarComponent
	if strings.ContainsRune(unquoted, 'y') {
		out = append(out, ComponentYear)
	}
	if strings.ContainsRune(unquoted, 'M') {
		out = append(out, ComponentMonth)
	}
	if strings.ContainsRune(unquoted, 'd') {
		out = append(out, ComponentDay)
	}
	if strings.ContainsAny(unquoted, "Hh") {
		out = append(out, ComponentHour)
	}
	if strings.ContainsRune(unquoted, 'm') {
		out = append(out, ComponentMinute)
	}
	if strings.ContainsRune(unquoted, 's') {
		out = append(out, ComponentSecond)
	}
	return out
}

func stripQuoted(pattern string) string {
	var b strings.Builder
	quoted := false
	for _, r := range pattern {
		if r == '\'' {
			quoted = !quoted
			continue
		}
		if !quoted {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseDate parses s with the given Unicode pattern, or as ISO 8601 when the
// pattern is empty.
func ParseDate(s, pattern string) (time.Time, error) {
	if pattern != "" {
		t, err := time.Parse(GoLayout(pattern), s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q does not match date format %q", ErrInvalidFormat, s, pattern)
		}
		return t, nil
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not an ISO 8601 date", ErrInvalidFormat, s)
}

// FormatDate formats t with the given Unicode pattern, or as RFC 3339 when
// the pattern is empty.
func FormatDate(t time.Time, pattern string) string {
	if pattern == "" {
		return t.Format(time.RFC3339Nano)
	}
	return t.Format(GoLayout(pattern))
}
