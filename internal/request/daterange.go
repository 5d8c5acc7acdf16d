package request

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DateLayout       = "2006-01-02"
	defaultRangeDays = 30

	// MaxRangeDays bounds custom ranges on every endpoint.
	MaxRangeDays = 3660

	DateRangeToday      = "today"
	DateRangeLast7Days  = "last_7_days"
	DateRangeLast30Days = "last_30_days"
	DateRangeThisMonth  = "this_month"
	DateRangeThisYear   = "this_year"
	DateRangeCustom     = "custom"
)

// DateRange is a half-open interval [Start, End) of whole days in Location.
// StartDate and EndDate echo the inclusive calendar dates.
type DateRange struct {
	Start     time.Time
	End       time.Time
	Preset    string
	StartDate string
	EndDate   string
	Location  *time.Location
}

// StartUTC and EndUTC return the bounds for querying stored UTC timestamps.
func (d DateRange) StartUTC() time.Time { return d.Start.UTC() }
func (d DateRange) EndUTC() time.Time   { return d.End.UTC() }

// ParseDateRange reads date_range, start_date and end_date from the query
// relative to the current time in loc.
func ParseDateRange(query url.Values, loc *time.Location) (DateRange, error) {
	return ParseDateRangeAt(query, loc, time.Now())
}

// ParseDateRangeAt is ParseDateRange with an explicit clock. A date_range of
// the form "YYYY-MM-DD to YYYY-MM-DD" is accepted as a custom range. Without
// any parameters the last 30 days ending today are used.
func ParseDateRangeAt(query url.Values, loc *time.Location, now time.Time) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	rangeRaw := strings.TrimSpace(query.Get("date_range"))
	preset := strings.ToLower(rangeRaw)
	startRaw := strings.TrimSpace(query.Get("start_date"))
	endRaw := strings.TrimSpace(query.Get("end_date"))

	if rangeRaw != "" && strings.Contains(rangeRaw, "to") && !isKnownDateRangePreset(preset) {
		parts := strings.SplitN(rangeRaw, "to", 2)
		startRaw = strings.TrimSpace(parts[0])
		endRaw = strings.TrimSpace(parts[1])
		preset = ""
	}

	if preset != "" && preset != DateRangeCustom {
		startDate, endDate, ok := presetDateRange(preset, now.In(loc))
		if !ok {
			return DateRange{}, fmt.Errorf("invalid date_range")
		}
		return newDateRange(startDate, endDate, preset, loc), nil
	}

	if startRaw == "" && endRaw == "" {
		if preset == DateRangeCustom {
			return DateRange{}, fmt.Errorf("start_date and end_date are required")
		}
		startDate, endDate, _ := presetDateRange(DateRangeLast30Days, now.In(loc))
		return newDateRange(startDate, endDate, DateRangeLast30Days, loc), nil
	}

	if startRaw == "" || endRaw == "" {
		return DateRange{}, fmt.Errorf("start_date and end_date are required")
	}

	startDate, err := time.ParseInLocation(DateLayout, startRaw, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("start_date must be in YYYY-MM-DD format")
	}

	endDate, err := time.ParseInLocation(DateLayout, endRaw, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("end_date must be in YYYY-MM-DD format")
	}

	if endDate.Before(startDate) {
		return DateRange{}, fmt.Errorf("end_date must be after start_date")
	}

	dateRange := newDateRange(startDate, endDate, DateRangeCustom, loc)
	if dateRange.Days() > MaxRangeDays {
		return DateRange{}, fmt.Errorf("date range must not exceed %d days", MaxRangeDays)
	}
	return dateRange, nil
}

// Days counts the calendar days in the range, both ends included.
func (d DateRange) Days() int {
	start := time.Date(d.Start.Year(), d.Start.Month(), d.Start.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(d.End.Year(), d.End.Month(), d.End.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// maxSeriesDays limits how long a range may be for each series granularity.
var maxSeriesDays = map[string]int{
	"day":   366,
	"week":  5 * 366,
	"month": MaxRangeDays,
}

// CheckSeriesSpan rejects ranges that would produce an oversized time series
// at the given granularity.
func (d DateRange) CheckSeriesSpan(granularity string) error {
	limit, ok := maxSeriesDays[granularity]
	if !ok {
		limit = maxSeriesDays["day"]
	}
	if d.Days() > limit {
		return fmt.Errorf("date range must not exceed %d days for %s granularity", limit, granularity)
	}
	return nil
}

func newDateRange(startDate, endDate time.Time, preset string, loc *time.Location) DateRange {
	return DateRange{
		Start:     startDate,
		End:       endDate.AddDate(0, 0, 1),
		Preset:    preset,
		StartDate: startDate.Format(DateLayout),
		EndDate:   endDate.Format(DateLayout),
		Location:  loc,
	}
}

func presetDateRange(preset string, now time.Time) (time.Time, time.Time, bool) {
	loc := now.Location()
	endDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch preset {
	case DateRangeToday:
		return endDate, endDate, true
	case DateRangeLast7Days:
		return endDate.AddDate(0, 0, -6), endDate, true
	case DateRangeLast30Days:
		return endDate.AddDate(0, 0, -(defaultRangeDays - 1)), endDate, true
	case DateRangeThisMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc), endDate, true
	case DateRangeThisYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc), endDate, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

func isKnownDateRangePreset(preset string) bool {
	switch preset {
	case DateRangeToday, DateRangeLast7Days, DateRangeLast30Days, DateRangeThisMonth, DateRangeThisYear, DateRangeCustom:
		return true
	default:
		return false
	}
}

// ParseGranularity normalises a series granularity; empty means day.
func ParseGranularity(raw string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "", "day", "daily":
		return "day", nil
	case "week", "weekly":
		return "week", nil
	case "month", "monthly":
		return "month", nil
	default:
		return "", fmt.Errorf("invalid granularity")
	}
}

// LoadLocation resolves a time zone name, falling back to UTC.
func LoadLocation(timezone string) (*time.Location, error) {
	if strings.TrimSpace(timezone) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC, fmt.Errorf("load location %q: %w", timezone, err)
	}
	return loc, nil
}
