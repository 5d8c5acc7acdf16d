package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	dbgen "github.com/codr1/Trainyard/internal/db/generated"
	"github.com/codr1/Trainyard/internal/models"
)

const (
	expiringPassWindow = 7 * 24 * time.Hour
	ungradedKey        = "ungraded"
)

type MemberReportInput struct {
	Members      []dbgen.Member
	Attendance   []dbgen.ListAttendanceRow
	ActivePasses []dbgen.MemberProduct
	Start        time.Time
	End          time.Time
	Granularity  string
	Location     *time.Location
}

type CountBucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type SeriesCount struct {
	Period string `json:"period"`
	Count  int    `json:"count"`
}

type MemberReport struct {
	Granularity     string        `json:"granularity"`
	TotalMembers    int           `json:"totalMembers"`
	NewMembers      int           `json:"newMembers"`
	ActiveMembers   int           `json:"activeMembers"`
	CheckInCount    int           `json:"checkInCount"`
	ByGrade         []CountBucket `json:"byGrade"`
	ByStatus        []CountBucket `json:"byStatus"`
	NewMemberSeries []SeriesCount `json:"newMemberSeries"`
	ActivePasses    int           `json:"activePasses"`
	ExpiringPasses  int           `json:"expiringPasses"`
}

type MemberReportSource interface {
	ListMembersJoinedBefore(ctx context.Context, joinedBefore time.Time) ([]dbgen.Member, error)
	ListAttendance(ctx context.Context, arg dbgen.ListAttendanceParams) ([]dbgen.ListAttendanceRow, error)
	ListActiveMemberProducts(ctx context.Context) ([]dbgen.MemberProduct, error)
}

// CalculateMemberReport loads members, attendance and active passes and
// builds the member report for [start, end).
func CalculateMemberReport(ctx context.Context, q MemberReportSource, start, end time.Time, granularity string, loc *time.Location) (MemberReport, error) {
	if q == nil {
		return MemberReport{}, errors.New("queries are required")
	}
	members, err := q.ListMembersJoinedBefore(ctx, end.UTC())
	if err != nil {
		return MemberReport{}, fmt.Errorf("load members: %w", err)
	}
	attendance, err := q.ListAttendance(ctx, dbgen.ListAttendanceParams{StartTime: start.UTC(), EndTime: end.UTC()})
	if err != nil {
		return MemberReport{}, fmt.Errorf("load attendance: %w", err)
	}
	passes, err := q.ListActiveMemberProducts(ctx)
	if err != nil {
		return MemberReport{}, fmt.Errorf("load active passes: %w", err)
	}
	return BuildMemberReport(MemberReportInput{
		Members:      members,
		Attendance:   attendance,
		ActivePasses: passes,
		Start:        start,
		End:          end,
		Granularity:  granularity,
		Location:     loc,
	}), nil
}

// BuildMemberReport counts members who joined before End. Expiring passes are
// those expiring within seven days from the start of the range's final day.
func BuildMemberReport(in MemberReportInput) MemberReport {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	granularity := normalizeGranularity(in.Granularity)

	report := MemberReport{
		Granularity:     granularity,
		ByGrade:         []CountBucket{},
		ByStatus:        []CountBucket{},
		NewMemberSeries: []SeriesCount{},
	}

	series := make(map[string]int)
	for _, key := range bucketKeys(in.Start, in.End, granularity, loc) {
		series[key] = 0
	}
	grades := make(map[string]int)
	statuses := make(map[string]int)

	for _, member := range in.Members {
		if !member.JoinedAt.Before(in.End) {
			continue
		}
		report.TotalMembers++

		grade := strings.TrimSpace(member.Grade)
		if grade == "" {
			grade = ungradedKey
		}
		grades[grade]++
		statuses[member.Status]++

		if !member.JoinedAt.Before(in.Start) {
			report.NewMembers++
			series[bucketKey(member.JoinedAt, granularity, loc)]++
		}
	}

	active := make(map[int64]struct{})
	for _, visit := range in.Attendance {
		report.CheckInCount++
		active[visit.MemberID] = struct{}{}
	}
	report.ActiveMembers = len(active)

	// Passes are counted as of the start of the last day in the range. A pass
	// whose status the expiry job has not yet updated is not usable there.
	asOf := in.End.AddDate(0, 0, -1)
	expiringBefore := asOf.Add(expiringPassWindow)
	for _, pass := range in.ActivePasses {
		if !models.PassUsableAt(pass, asOf) {
			continue
		}
		report.ActivePasses++
		if pass.ExpiresAt.Valid && pass.ExpiresAt.Time.Before(expiringBefore) {
			report.ExpiringPasses++
		}
	}

	report.ByGrade = sortedBuckets(grades)
	report.ByStatus = sortedBuckets(statuses)

	for period, count := range series {
		report.NewMemberSeries = append(report.NewMemberSeries, SeriesCount{Period: period, Count: count})
	}
	sort.Slice(report.NewMemberSeries, func(i, j int) bool {
		return report.NewMemberSeries[i].Period < report.NewMemberSeries[j].Period
	})

	return report
}

func sortedBuckets(counts map[string]int) []CountBucket {
	buckets := make([]CountBucket, 0, len(counts))
	for key, count := range counts {
		buckets = append(buckets, CountBucket{Key: key, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Key < buckets[j].Key
	})
	return buckets
}
