package request

import (
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// OptionalID reads a positive ID filter from the query. An absent value
// returns an invalid NullInt64; a malformed one returns an error naming key.
func OptionalID(query url.Values, key string) (sql.NullInt64, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return sql.NullInt64{}, nil
	}
	id, ok := parsePositiveID(raw)
	if !ok {
		return sql.NullInt64{}, fmt.Errorf("%s must be a positive integer", key)
	}
	return sql.NullInt64{Int64: id, Valid: true}, nil
}

// OptionalString reads a trimmed filter value; empty means unset.
func OptionalString(query url.Values, key string) sql.NullString {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}

// NonNegativeInt parses an optional non-negative integer, falling back to def
// when absent.
func NonNegativeInt(query url.Values, key string, def int64) (int64, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return value, nil
}

func parsePositiveID(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}
