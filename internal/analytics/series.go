package analytics

import "time"

const (
	GranularityDay   = "day"
	GranularityWeek  = "week"
	GranularityMonth = "month"

	periodLayout = "2006-01-02"
)

// bucketStart returns the start of the day, ISO week (Monday) or month
// containing t in loc.
func bucketStart(t time.Time, granularity string, loc *time.Location) time.Time {
	local := t.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	switch granularity {
	case GranularityWeek:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case GranularityMonth:
		return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	default:
		return day
	}
}

func nextBucket(t time.Time, granularity string) time.Time {
	switch granularity {
	case GranularityWeek:
		return t.AddDate(0, 0, 7)
	case GranularityMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// bucketKeys lists every bucket overlapping [start, end) in ascending order.
func bucketKeys(start, end time.Time, granularity string, loc *time.Location) []string {
	keys := []string{}
	if !end.After(start) {
		return keys
	}
	for b := bucketStart(start, granularity, loc); b.Before(end); b = nextBucket(b, granularity) {
		keys = append(keys, b.Format(periodLayout))
	}
	return keys
}

func bucketKey(t time.Time, granularity string, loc *time.Location) string {
	return bucketStart(t, granularity, loc).Format(periodLayout)
}

func normalizeGranularity(granularity string) string {
	switch granularity {
	case GranularityWeek, GranularityMonth:
		return granularity
	default:
		return GranularityDay
	}
}
