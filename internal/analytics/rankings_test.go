package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	dbgen "github.com/codr1/Trainyard/internal/db/generated"
)

func logRow(memberID int64, first, last, grade string, speed, power, distance *float64) dbgen.ListTrainingLogsForRankingRow {
	return dbgen.ListTrainingLogsForRankingRow{
		MemberID:  memberID,
		FirstName: first,
		LastName:  last,
		Grade:     grade,
		LoggedOn:  time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Speed:     nullFloat(speed),
		Power:     nullFloat(power),
		Distance:  nullFloat(distance),
	}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func f(v float64) *float64 { return &v }

func sampleRows() []dbgen.ListTrainingLogsForRankingRow {
	return []dbgen.ListTrainingLogsForRankingRow{
		logRow(1, "Ana", "Lopez", "U12", f(10), nil, f(100)),
		logRow(1, "Ana", "Lopez", "U12", f(14), f(200), nil),
		logRow(2, "Ben", "Kim", "u12 ", f(14), f(150), f(80)),
		logRow(3, "Cara", "Diaz", "U14", f(20), nil, nil),
		logRow(2, "Ben", "Kim", "u12 ", f(6), nil, f(120)),
	}
}

func TestBuildRankingsAggregatesPerMember(t *testing.T) {
	rankings := BuildRankings(sampleRows(), RankingOptions{})

	if rankings.RecordCount != 5 {
		t.Fatalf("record count: got %d want 5", rankings.RecordCount)
	}
	if rankings.MemberCount != 3 {
		t.Fatalf("member count: got %d want 3", rankings.MemberCount)
	}

	byID := make(map[int64]MemberPerformance)
	sessions := 0
	for _, member := range rankings.Members {
		byID[member.MemberID] = member
		sessions += member.SessionCount
	}
	if sessions != rankings.RecordCount {
		t.Fatalf("session counts sum to %d, want %d", sessions, rankings.RecordCount)
	}

	ana := byID[1]
	if ana.SessionCount != 2 || ana.Speed.Max != 14 || ana.Speed.Avg != 12 || ana.Speed.Sum != 24 {
		t.Fatalf("ana speed: %+v sessions %d", ana.Speed, ana.SessionCount)
	}
	if ana.Power.Count != 1 || ana.Power.Max != 200 || ana.Power.Avg != 200 {
		t.Fatalf("ana power: %+v", ana.Power)
	}
	if ana.Distance.Count != 1 || ana.Distance.Avg != 100 {
		t.Fatalf("ana distance: %+v", ana.Distance)
	}

	ben := byID[2]
	if ben.Speed.Avg != 10 || ben.Distance.Max != 120 || ben.Distance.Avg != 100 {
		t.Fatalf("ben: %+v", ben)
	}
	if ben.Grade != "u12" {
		t.Fatalf("grade should be trimmed, got %q", ben.Grade)
	}

	cara := byID[3]
	if cara.Power.Count != 0 || cara.Distance.Count != 0 {
		t.Fatalf("cara should have no power or distance: %+v", cara)
	}
}

func TestBuildRankingsBoards(t *testing.T) {
	rankings := BuildRankings(sampleRows(), RankingOptions{})

	assertBoard(t, "maxSpeed", rankings.MaxSpeed, []int64{3, 1, 2}, []int{1, 2, 2})
	assertBoard(t, "avgSpeed", rankings.AvgSpeed, []int64{3, 1, 2}, []int{1, 2, 3})
	assertBoard(t, "maxPower", rankings.MaxPower, []int64{1, 2}, []int{1, 2})
	assertBoard(t, "avgPower", rankings.AvgPower, []int64{1, 2}, []int{1, 2})
	assertBoard(t, "maxDistance", rankings.MaxDistance, []int64{2, 1}, []int{1, 2})
	assertBoard(t, "avgDistance", rankings.AvgDistance, []int64{1, 2}, []int{1, 1})

	if rankings.MaxSpeed[0].Value != 20 || rankings.MaxSpeed[0].MemberName != "Cara Diaz" {
		t.Fatalf("unexpected leader: %+v", rankings.MaxSpeed[0])
	}
}

func TestBuildRankingsBoardsAreNonIncreasing(t *testing.T) {
	rankings := BuildRankings(sampleRows(), RankingOptions{})
	boards := map[string][]RankingEntry{
		"maxSpeed":    rankings.MaxSpeed,
		"avgSpeed":    rankings.AvgSpeed,
		"maxPower":    rankings.MaxPower,
		"avgPower":    rankings.AvgPower,
		"maxDistance": rankings.MaxDistance,
		"avgDistance": rankings.AvgDistance,
	}
	for name, board := range boards {
		for i := 1; i < len(board); i++ {
			if board[i].Value > board[i-1].Value {
				t.Fatalf("%s not sorted at %d: %v > %v", name, i, board[i].Value, board[i-1].Value)
			}
			if board[i].Rank < board[i-1].Rank {
				t.Fatalf("%s rank decreased at %d", name, i)
			}
		}
	}
}

func TestBuildRankingsCompetitionRanking(t *testing.T) {
	rows := []dbgen.ListTrainingLogsForRankingRow{
		logRow(1, "Dan", "A", "", f(30), nil, nil),
		logRow(2, "Eve", "B", "", f(20), nil, nil),
		logRow(3, "Fay", "C", "", f(20), nil, nil),
		logRow(4, "Gus", "D", "", f(10), nil, nil),
	}
	rankings := BuildRankings(rows, RankingOptions{})
	assertBoard(t, "maxSpeed", rankings.MaxSpeed, []int64{1, 2, 3, 4}, []int{1, 2, 2, 4})
}

func TestBuildRankingsTieBreaksOnNameThenID(t *testing.T) {
	rows := []dbgen.ListTrainingLogsForRankingRow{
		logRow(9, "Sam", "Lee", "", f(5), nil, nil),
		logRow(4, "Sam", "Lee", "", f(5), nil, nil),
		logRow(7, "Al", "Zed", "", f(5), nil, nil),
	}
	rankings := BuildRankings(rows, RankingOptions{})
	assertBoard(t, "maxSpeed", rankings.MaxSpeed, []int64{7, 4, 9}, []int{1, 1, 1})
}

func TestBuildRankingsGradeFilter(t *testing.T) {
	rankings := BuildRankings(sampleRows(), RankingOptions{Grade: "  U12 "})

	if rankings.RecordCount != 4 || rankings.MemberCount != 2 {
		t.Fatalf("filtered counts: records %d members %d", rankings.RecordCount, rankings.MemberCount)
	}
	for _, entry := range rankings.MaxSpeed {
		if entry.MemberID == 3 {
			t.Fatalf("member from another grade on board")
		}
	}
	if rankings.Grade != "U12" {
		t.Fatalf("grade echo: %q", rankings.Grade)
	}
}

func TestBuildRankingsLimit(t *testing.T) {
	rankings := BuildRankings(sampleRows(), RankingOptions{Limit: 1})
	if len(rankings.MaxSpeed) != 1 || rankings.MaxSpeed[0].MemberID != 3 {
		t.Fatalf("limit: %+v", rankings.MaxSpeed)
	}
	if rankings.MemberCount != 3 {
		t.Fatalf("limit must not change member count")
	}
}

func TestBuildRankingsEmptyInput(t *testing.T) {
	rankings := BuildRankings(nil, RankingOptions{Grade: "U12", Limit: 5})

	if rankings.RecordCount != 0 || rankings.MemberCount != 0 {
		t.Fatalf("expected zero counts: %+v", rankings)
	}
	payload, err := json.Marshal(rankings)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{"maxSpeed", "avgSpeed", "maxPower", "avgPower", "maxDistance", "avgDistance", "members"} {
		if !strings.Contains(string(payload), `"`+key+`":[]`) {
			t.Fatalf("%s should encode as an empty array: %s", key, payload)
		}
	}
}

type fakeTrainingLogSource struct {
	params dbgen.ListTrainingLogsForRankingParams
	rows   []dbgen.ListTrainingLogsForRankingRow
	err    error
}

func (f *fakeTrainingLogSource) ListTrainingLogsForRanking(_ context.Context, arg dbgen.ListTrainingLogsForRankingParams) ([]dbgen.ListTrainingLogsForRankingRow, error) {
	f.params = arg
	return f.rows, f.err
}

func TestCalculateRankings(t *testing.T) {
	loc := time.FixedZone("UTC+1", 60*60)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, loc)
	end := time.Date(2024, 3, 8, 0, 0, 0, 0, loc)
	source := &fakeTrainingLogSource{rows: sampleRows()}

	rankings, err := CalculateRankings(context.Background(), source, start, end, RankingOptions{})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if rankings.RecordCount != 5 {
		t.Fatalf("record count: %d", rankings.RecordCount)
	}
	if source.params.StartTime.Location() != time.UTC || !source.params.StartTime.Equal(start) {
		t.Fatalf("start should be passed in UTC: %v", source.params.StartTime)
	}

	source.err = errors.New("boom")
	if _, err := CalculateRankings(context.Background(), source, start, end, RankingOptions{}); err == nil {
		t.Fatalf("expected error")
	}
}

func assertBoard(t *testing.T, name string, board []RankingEntry, ids []int64, ranks []int) {
	t.Helper()
	if len(board) != len(ids) {
		t.Fatalf("%s: got %d entries want %d: %+v", name, len(board), len(ids), board)
	}
	for i := range ids {
		if board[i].MemberID != ids[i] || board[i].Rank != ranks[i] {
			t.Fatalf("%s[%d]: got member %d rank %d, want member %d rank %d", name, i, board[i].MemberID, board[i].Rank, ids[i], ranks[i])
		}
	}
}
