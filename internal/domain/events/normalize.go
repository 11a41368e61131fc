package events

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxTitleLength       = 500
	maxDescriptionLength = 10000
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// TimeOfDay is an optional wall-clock time. A nil *TimeOfDay means the event
// has no specified time; it is never coerced to midnight or any other
// placeholder value.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// MinuteOfDay returns minutes since midnight, for storage and sorting.
func (t TimeOfDay) MinuteOfDay() int {
	return t.Hour*60 + t.Minute
}

func TimeOfDayFromMinute(minute int) TimeOfDay {
	return TimeOfDay{Hour: minute / 60, Minute: minute % 60}
}

// ParseTimeOfDay parses "HH:MM". Blank or malformed input normalizes to
// absent (nil), never to midnight or any other wall-clock default.
func ParseTimeOfDay(value string) *TimeOfDay {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return nil
	}
	return &TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}
}

// CreateInput carries the raw field values of a create request before
// normalization.
type CreateInput struct {
	Title       string
	Description string
	Date        string
	Time        string
}

// NormalizedInput is a CreateInput after trimming, required-field checks, and
// absent-field conversion. Normalization happens here once, at the boundary.
type NormalizedInput struct {
	Title       string
	Description *string
	Date        time.Time
	Time        *TimeOfDay
}

func NormalizeCreateInput(input CreateInput) (NormalizedInput, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return NormalizedInput{}, ValidationError{Field: "title", Message: "must not be empty"}
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return NormalizedInput{}, ValidationError{Field: "title", Message: fmt.Sprintf("must not exceed %d characters", maxTitleLength)}
	}

	rawDate := strings.TrimSpace(input.Date)
	if rawDate == "" {
		return NormalizedInput{}, ValidationError{Field: "date", Message: "must not be empty"}
	}
	date, err := time.Parse("2006-01-02", rawDate)
	if err != nil {
		return NormalizedInput{}, ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}

	timeOfDay := ParseTimeOfDay(input.Time)

	var description *string
	if trimmed := strings.TrimSpace(input.Description); trimmed != "" {
		if utf8.RuneCountInString(trimmed) > maxDescriptionLength {
			return NormalizedInput{}, ValidationError{Field: "description", Message: fmt.Sprintf("must not exceed %d characters", maxDescriptionLength)}
		}
		description = &trimmed
	}

	return NormalizedInput{
		Title:       title,
		Description: description,
		Date:        date,
		Time:        timeOfDay,
	}, nil
}
