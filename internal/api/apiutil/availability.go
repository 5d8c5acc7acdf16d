package apiutil

import (
	"context"
	"fmt"
	"sort"
	"time"

	dbgen "github.com/codr1/Trainyard/internal/db/generated"
)

// SlotRequest describes a booking window to check against existing
// scheduled bookings.
type SlotRequest struct {
	FacilityID int64
	Capacity   int64
	CoachID    int64
	StartTime  time.Time
	EndTime    time.Time
}

// EnsureSlotAvailable returns an AvailabilityError when the coach already
// holds an overlapping booking or the facility is at capacity. A capacity of
// zero means unlimited.
func EnsureSlotAvailable(ctx context.Context, q *dbgen.Queries, slot SlotRequest) error {
	if slot.CoachID > 0 {
		count, err := q.CountOverlappingCoachBookings(ctx, dbgen.CountOverlappingCoachBookingsParams{
			CoachID:   slot.CoachID,
			EndTime:   slot.EndTime,
			StartTime: slot.StartTime,
		})
		if err != nil {
			return fmt.Errorf("coach availability check failed: %w", err)
		}
		if count > 0 {
			return AvailabilityError{Reason: "coach already has a booking in this time slot"}
		}
	}

	if slot.Capacity > 0 {
		existing, err := q.ListOverlappingFacilityBookings(ctx, dbgen.ListOverlappingFacilityBookingsParams{
			FacilityID: slot.FacilityID,
			EndTime:    slot.EndTime,
			StartTime:  slot.StartTime,
		})
		if err != nil {
			return fmt.Errorf("facility availability check failed: %w", err)
		}
		if peakConcurrent(existing, slot.StartTime, slot.EndTime)+1 > slot.Capacity {
			return AvailabilityError{Reason: fmt.Sprintf("facility is at capacity (%d) for this time slot", slot.Capacity)}
		}
	}

	return nil
}

type AvailabilityError struct {
	Reason string
}

func (e AvailabilityError) Error() string {
	return e.Reason
}

// peakConcurrent returns the largest number of bookings running at the same
// instant inside [start, end). Bookings are half-open, so one ending exactly
// when another starts does not overlap it.
func peakConcurrent(bookings []dbgen.ListOverlappingFacilityBookingsRow, start, end time.Time) int64 {
	type edge struct {
		at    time.Time
		delta int64
	}
	edges := make([]edge, 0, len(bookings)*2)
	for _, b := range bookings {
		from, to := b.StartTime, b.EndTime
		if from.Before(start) {
			from = start
		}
		if to.After(end) {
			to = end
		}
		if !from.Before(to) {
			continue
		}
		edges = append(edges, edge{from, 1}, edge{to, -1})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].at.Equal(edges[j].at) {
			return edges[i].delta < edges[j].delta
		}
		return edges[i].at.Before(edges[j].at)
	})

	var current, peak int64
	for _, e := range edges {
		current += e.delta
		peak = max(peak, current)
	}
	return peak
}
