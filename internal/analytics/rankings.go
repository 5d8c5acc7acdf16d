// Package analytics computes training leaderboards and revenue and member
// reports from rows already loaded by the query layer.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	dbgen "github.com/codr1/Trainyard/internal/db/generated"
)

type RankingOptions struct {
	Grade string
	Limit int
}

type MetricStats struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
}

func (m *MetricStats) add(value float64) {
	m.Count++
	m.Sum += value
	if m.Count == 1 || value > m.Max {
		m.Max = value
	}
	m.Avg += (value - m.Avg) / float64(m.Count)
}

type MemberPerformance struct {
	MemberID     int64       `json:"memberId"`
	MemberName   string      `json:"memberName"`
	Grade        string      `json:"grade"`
	SessionCount int         `json:"sessionCount"`
	Speed        MetricStats `json:"speed"`
	Power        MetricStats `json:"power"`
	Distance     MetricStats `json:"distance"`
}

type RankingEntry struct {
	Rank         int     `json:"rank"`
	MemberID     int64   `json:"memberId"`
	MemberName   string  `json:"memberName"`
	Grade        string  `json:"grade"`
	Value        float64 `json:"value"`
	SessionCount int     `json:"sessionCount"`
}

type Rankings struct {
	Grade       string              `json:"grade,omitempty"`
	RecordCount int                 `json:"recordCount"`
	MemberCount int                 `json:"memberCount"`
	Members     []MemberPerformance `json:"members"`
	MaxSpeed    []RankingEntry      `json:"maxSpeed"`
	AvgSpeed    []RankingEntry      `json:"avgSpeed"`
	MaxPower    []RankingEntry      `json:"maxPower"`
	AvgPower    []RankingEntry      `json:"avgPower"`
	MaxDistance []RankingEntry      `json:"maxDistance"`
	AvgDistance []RankingEntry      `json:"avgDistance"`
}

type TrainingLogSource interface {
	ListTrainingLogsForRanking(ctx context.Context, arg dbgen.ListTrainingLogsForRankingParams) ([]dbgen.ListTrainingLogsForRankingRow, error)
}

// CalculateRankings loads training logs in [start, end) and builds the
// leaderboards.
func CalculateRankings(ctx context.Context, q TrainingLogSource, start, end time.Time, opts RankingOptions) (Rankings, error) {
	if q == nil {
		return Rankings{}, errors.New("queries are required")
	}
	rows, err := q.ListTrainingLogsForRanking(ctx, dbgen.ListTrainingLogsForRankingParams{
		StartTime: start.UTC(),
		EndTime:   end.UTC(),
	})
	if err != nil {
		return Rankings{}, fmt.Errorf("load training logs: %w", err)
	}
	return BuildRankings(rows, opts), nil
}

// BuildRankings groups rows by member and produces six leaderboards sorted
// descending by their metric. Members without any value for a metric are left
// off that metric's boards.
func BuildRankings(rows []dbgen.ListTrainingLogsForRankingRow, opts RankingOptions) Rankings {
	grade := strings.TrimSpace(opts.Grade)

	members := make(map[int64]*MemberPerformance)
	recordCount := 0
	for _, row := range rows {
		if grade != "" && !strings.EqualFold(strings.TrimSpace(row.Grade), grade) {
			continue
		}
		recordCount++

		entry, ok := members[row.MemberID]
		if !ok {
			entry = &MemberPerformance{
				MemberID:   row.MemberID,
				MemberName: memberName(row.FirstName, row.LastName),
				Grade:      strings.TrimSpace(row.Grade),
			}
			members[row.MemberID] = entry
		}

		entry.SessionCount++
		if row.Speed.Valid {
			entry.Speed.add(row.Speed.Float64)
		}
		if row.Power.Valid {
			entry.Power.add(row.Power.Float64)
		}
		if row.Distance.Valid {
			entry.Distance.add(row.Distance.Float64)
		}
	}

	ordered := make([]*MemberPerformance, 0, len(members))
	for _, member := range members {
		ordered = append(ordered, member)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return lessByName(ordered[i], ordered[j])
	})

	performances := make([]MemberPerformance, 0, len(ordered))
	for _, member := range ordered {
		performances = append(performances, *member)
	}

	return Rankings{
		Grade:       grade,
		RecordCount: recordCount,
		MemberCount: len(performances),
		Members:     performances,
		MaxSpeed:    leaderboard(ordered, opts.Limit, func(m *MemberPerformance) (float64, bool) { return m.Speed.Max, m.Speed.Count > 0 }),
		AvgSpeed:    leaderboard(ordered, opts.Limit, func(m *MemberPerformance) (float64, bool) { return m.Speed.Avg, m.Speed.Count > 0 }),
		MaxPower:    leaderboard(ordered, opts.Limit, func(m *MemberPerformance) (float64, bool) { return m.Power.Max, m.Power.Count > 0 }),
		AvgPower:    leaderboard(ordered, opts.Limit, func(m *MemberPerformance) (float64, bool) { return m.Power.Avg, m.Power.Count > 0 }),
		MaxDistance: leaderboard(ordered, opts.Limit, func(m *MemberPerformance) (float64, bool) { return m.Distance.Max, m.Distance.Count > 0 }),
		AvgDistance: leaderboard(ordered, opts.Limit, func(m *MemberPerformance) (float64, bool) { return m.Distance.Avg, m.Distance.Count > 0 }),
	}
}

func leaderboard(members []*MemberPerformance, limit int, metric func(*MemberPerformance) (float64, bool)) []RankingEntry {
	type scored struct {
		member *MemberPerformance
		value  float64
	}

	candidates := make([]scored, 0, len(members))
	for _, member := range members {
		value, ok := metric(member)
		if !ok {
			continue
		}
		candidates = append(candidates, scored{member: member, value: value})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if !sameValue(candidates[i].value, candidates[j].value) {
			return candidates[i].value > candidates[j].value
		}
		return lessByName(candidates[i].member, candidates[j].member)
	})

	board := make([]RankingEntry, 0, len(candidates))
	for i, candidate := range candidates {
		rank := i + 1
		if i > 0 && sameValue(candidate.value, candidates[i-1].value) {
			rank = board[i-1].Rank
		}
		board = append(board, RankingEntry{
			Rank:         rank,
			MemberID:     candidate.member.MemberID,
			MemberName:   candidate.member.MemberName,
			Grade:        candidate.member.Grade,
			Value:        candidate.value,
			SessionCount: candidate.member.SessionCount,
		})
	}

	if limit > 0 && len(board) > limit {
		board = board[:limit]
	}
	return board
}

func lessByName(a, b *MemberPerformance) bool {
	if a.MemberName != b.MemberName {
		return a.MemberName < b.MemberName
	}
	return a.MemberID < b.MemberID
}

// sameValue treats values within floating point noise as a tie.
func sameValue(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= 1e-9*scale
}

func memberName(firstName, lastName string) string {
	return strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
}
