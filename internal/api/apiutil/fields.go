package apiutil

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codr1/Trainyard/internal/phone"
)

func ParsePositiveInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", field)
	}
	return value, nil
}

// PathID reads the {id} path value as a positive integer.
func PathID(r *http.Request) (int64, error) {
	id, err := ParsePositiveInt64Field(r.PathValue("id"), "id")
	if err != nil {
		return 0, HandlerError{Status: http.StatusBadRequest, Message: "Invalid ID", Err: err}
	}
	return id, nil
}

func FormatPriceCents(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}

// ParseTimestamp accepts RFC 3339 or a local date/time without offset and
// returns the instant in UTC. Values without an offset are read in loc.
func ParseTimestamp(raw string, field string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	if loc == nil {
		loc = time.UTC
	}

	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC(), nil
	}

	layouts := []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		parsed, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%s must be a valid date or timestamp", field)
}

// OptionalTimestamp is ParseTimestamp for optional fields; nil or blank
// returns def.
func OptionalTimestamp(raw *string, field string, loc *time.Location, def time.Time) (time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return def.UTC(), nil
	}
	return ParseTimestamp(*raw, field, loc)
}

// PhoneField normalizes an optional phone number to E.164 in region. Nil or
// blank becomes NULL; an unparseable number is a FieldError.
func PhoneField(raw *string, field, region string) (sql.NullString, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return sql.NullString{}, nil
	}
	normalized, err := phone.Normalize(*raw, region)
	if err != nil {
		return sql.NullString{}, FieldError{Field: field, Reason: "must be a valid phone number"}
	}
	return sql.NullString{String: normalized, Valid: true}, nil
}
