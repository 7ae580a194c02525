package roundtime

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var (
	ErrUnrecognized = errors.New("could not recognize time")
	ErrFutureTime   = errors.New("time must not be in the future")
	ErrTimezone     = errors.New("invalid timezone")
)

// TimeParser resolves history filters such as "last week" or "3 days ago".
type TimeParser struct {
	TimezoneMap map[string]string
	parser      *when.Parser
}

// NewTimeParser creates a new TimeParser instance with predefined timezone mappings.
func NewTimeParser() *TimeParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	return &TimeParser{
		TimezoneMap: map[string]string{
			"UTC":  "UTC",
			"GMT":  "Europe/London",
			"BST":  "Europe/London",
			"CET":  "Europe/Paris",
			"CEST": "Europe/Paris",
			"EST":  "America/New_York",
			"EDT":  "America/New_York",
			"PST":  "America/Los_Angeles",
			"PDT":  "America/Los_Angeles",
		},
		parser: w,
	}
}

// GetTimezoneFromInput resolves an abbreviation or a full zone name.
func (tp *TimeParser) GetTimezoneFromInput(input string) (string, bool) {
	inputUpper := strings.ToUpper(input)

	for _, fullName := range tp.TimezoneMap {
		if inputUpper == strings.ToUpper(fullName) {
			return fullName, true
		}
	}

	if fullName, exists := tp.TimezoneMap[inputUpper]; exists {
		return fullName, true
	}

	return "", false
}

var lastPeriod = regexp.MustCompile(`\blast (week|month|year)\b`)

// ParseSince turns a past point in time, written as RFC 3339, a date or
// natural language, into an instant. timezone may be empty for UTC.
func (tp *TimeParser) ParseSince(input, timezone string, now time.Time) (time.Time, error) {
	loc := time.UTC
	if timezone != "" {
		name, found := tp.GetTimezoneFromInput(timezone)
		if !found {
			return time.Time{}, fmt.Errorf("%w: %s", ErrTimezone, timezone)
		}
		l, err := time.LoadLocation(name)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s: %w", ErrTimezone, timezone, err)
		}
		loc = l
	}

	input = strings.TrimSpace(input)
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return checkPast(t, now)
	}
	if t, err := time.ParseInLocation(time.DateOnly, input, loc); err == nil {
		return checkPast(t, now)
	}

	normalized := lastPeriod.ReplaceAllString(strings.ToLower(input), "1 $1 ago")
	r, err := tp.parser.Parse(normalized, now.In(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %w", ErrUnrecognized, input, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w %q", ErrUnrecognized, input)
	}
	return checkPast(r.Time.In(time.UTC), now)
}

func checkPast(t, now time.Time) (time.Time, error) {
	if t.After(now) {
		return time.Time{}, fmt.Errorf("%w (parsed: %s, now: %s)", ErrFutureTime, t.Format(time.RFC3339), now.Format(time.RFC3339))
	}
	return t.UTC(), nil
}
