// internal/api/bookings/handlers.go
package bookings

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Trainyard/internal/api/apiutil"
	"github.com/codr1/Trainyard/internal/db"
	dbgen "github.com/codr1/Trainyard/internal/db/generated"
	"github.com/codr1/Trainyard/internal/events"
	"github.com/codr1/Trainyard/internal/request"
)

const bookingQueryTimeout = 5 * time.Second

var (
	database    *db.DB
	publisher   events.Publisher
	handlerOnce sync.Once
)

type createBookingRequest struct {
	FacilityID     int64   `json:"facilityId" validate:"required,gt=0"`
	MemberID       *int64  `json:"memberId" validate:"omitempty,gt=0"`
	CoachID        *int64  `json:"coachId" validate:"omitempty,gt=0"`
	LessonCategory *string `json:"lessonCategory" validate:"omitempty,max=80"`
	StartTime      string  `json:"startTime" validate:"required"`
	EndTime        string  `json:"endTime" validate:"required"`
	Notes          *string `json:"notes" validate:"omitempty,max=500"`
}

type BookingResponse struct {
	ID             int64      `json:"id"`
	FacilityID     int64      `json:"facilityId"`
	MemberID       *int64     `json:"memberId"`
	MemberName     string     `json:"memberName,omitempty"`
	CoachID        *int64     `json:"coachId"`
	CoachName      string     `json:"coachName,omitempty"`
	LessonCategory *string    `json:"lessonCategory"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        time.Time  `json:"endTime"`
	Status         string     `json:"status"`
	Notes          *string    `json:"notes"`
	CancelledAt    *time.Time `json:"cancelledAt"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type listBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	StartDate string            `json:"startDate"`
	EndDate   string            `json:"endDate"`
}

// InitHandlers must be called during server startup before handling requests.
// A nil publisher drops booking events.
func InitHandlers(d *db.DB, p events.Publisher) {
	if d == nil {
		return
	}
	handlerOnce.Do(func() {
		database = d
		publisher = p
	})
}

func loadDB() *db.DB {
	return database
}

// POST /api/v1/bookings
func HandleBookingCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	d := loadDB()
	if d == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req createBookingRequest
	if err := apiutil.DecodeAndValidate(r, &req); err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	var created dbgen.Booking
	err := d.RunInTx(ctx, func(txdb *db.DB) error {
		facility, err := txdb.Queries.GetFacilityByID(ctx, req.FacilityID)
		if err != nil {
			return apiutil.LookupError(err, http.StatusBadRequest, "Facility not found", "Failed to load facility")
		}
		if facility.Status != "active" {
			return apiutil.HandlerError{Status: http.StatusConflict, Message: "Facility is not active"}
		}

		loc, err := request.LoadLocation(facility.Timezone)
		if err != nil {
			logger.Warn().Err(err).Int64("facility_id", facility.ID).Msg("Falling back to UTC for facility timezone")
		}
		startTime, err := apiutil.ParseTimestamp(req.StartTime, "startTime", loc)
		if err != nil {
			return apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err}
		}
		endTime, err := apiutil.ParseTimestamp(req.EndTime, "endTime", loc)
		if err != nil {
			return apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err}
		}
		if !endTime.After(startTime) {
			return apiutil.HandlerError{Status: http.StatusBadRequest, Message: "endTime must be after startTime"}
		}

		if req.MemberID != nil {
			if _, err := txdb.Queries.GetMemberByID(ctx, *req.MemberID); err != nil {
				return apiutil.LookupError(err, http.StatusBadRequest, "Member not found", "Failed to load member")
			}
		}
		var coachID int64
		if req.CoachID != nil {
			coach, err := txdb.Queries.GetCoachByID(ctx, *req.CoachID)
			if err != nil {
				return apiutil.LookupError(err, http.StatusBadRequest, "Coach not found", "Failed to load coach")
			}
			if coach.Status != "active" {
				return apiutil.HandlerError{Status: http.StatusConflict, Message: "Coach is not active"}
			}
			coachID = coach.ID
		}

		if err := apiutil.EnsureSlotAvailable(ctx, txdb.Queries, apiutil.SlotRequest{
			FacilityID: facility.ID,
			Capacity:   facility.Capacity,
			CoachID:    coachID,
			StartTime:  startTime,
			EndTime:    endTime,
		}); err != nil {
			var availErr apiutil.AvailabilityError
			if errors.As(err, &availErr) {
				return apiutil.HandlerError{Status: http.StatusConflict, Message: availErr.Reason, Err: err}
			}
			return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to check availability", Err: err}
		}

		created, err = txdb.Queries.CreateBooking(ctx, dbgen.CreateBookingParams{
			FacilityID:     facility.ID,
			MemberID:       apiutil.ToNullInt64(req.MemberID),
			CoachID:        apiutil.ToNullInt64(req.CoachID),
			LessonCategory: apiutil.ToNullString(req.LessonCategory),
			StartTime:      startTime,
			EndTime:        endTime,
			Notes:          apiutil.ToNullString(req.Notes),
		})
		if err != nil {
			return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to create booking", Err: err}
		}
		return nil
	})
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to create booking")
		return
	}

	resp := NewBookingResponse(created)
	logger.Info().Int64("booking_id", created.ID).Int64("facility_id", created.FacilityID).Msg("Booking created")
	events.Emit(r.Context(), publisher, events.BookingCreated, resp)

	if err := apiutil.WriteJSON(w, http.StatusCreated, resp); err != nil {
		logger.Error().Err(err).Int64("booking_id", created.ID).Msg("Failed to write booking response")
	}
}

// GET /api/v1/bookings
func HandleBookingList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	d := loadDB()
	if d == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	query := r.URL.Query()
	var params dbgen.ListBookingsParams
	var err error
	if params.FacilityID, err = request.OptionalID(query, "facility_id"); err != nil {
		apiutil.WriteError(w, r, apiutil.QueryError(err), "Invalid request")
		return
	}
	if params.MemberID, err = request.OptionalID(query, "member_id"); err != nil {
		apiutil.WriteError(w, r, apiutil.QueryError(err), "Invalid request")
		return
	}
	if params.CoachID, err = request.OptionalID(query, "coach_id"); err != nil {
		apiutil.WriteError(w, r, apiutil.QueryError(err), "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	loc := time.UTC
	if params.FacilityID.Valid {
		facility, err := d.Queries.GetFacilityByID(ctx, params.FacilityID.Int64)
		if err != nil {
			apiutil.WriteError(w, r, apiutil.LookupError(err, http.StatusBadRequest, "Facility not found", "Failed to load facility"), "Failed to load facility")
			return
		}
		loc, _ = request.LoadLocation(facility.Timezone)
	}

	dateRange, err := request.ParseDateRange(query, loc)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.QueryError(err), "Invalid request")
		return
	}
	params.StartTime = dateRange.StartUTC()
	params.EndTime = dateRange.EndUTC()

	rows, err := d.Queries.ListBookings(ctx, params)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load bookings")
		return
	}

	resp := listBookingsResponse{
		Bookings:  make([]BookingResponse, 0, len(rows)),
		StartDate: dateRange.StartDate,
		EndDate:   dateRange.EndDate,
	}
	for _, row := range rows {
		resp.Bookings = append(resp.Bookings, newBookingListResponse(row))
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write bookings response")
	}
}

// DELETE /api/v1/bookings/{id}
func HandleBookingCancel(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	d := loadDB()
	if d == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	bookingID, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	var cancelled dbgen.Booking
	err = d.RunInTx(ctx, func(txdb *db.DB) error {
		if _, err := txdb.Queries.GetBookingByID(ctx, bookingID); err != nil {
			return apiutil.LookupError(err, http.StatusNotFound, "Booking not found", "Failed to load booking")
		}
		var err error
		cancelled, err = txdb.Queries.CancelBooking(ctx, dbgen.CancelBookingParams{
			ID:          bookingID,
			CancelledAt: sql.NullTime{Time: time.Now().UTC(), Valid: true},
		})
		if err != nil {
			return apiutil.LookupError(err, http.StatusConflict, "Only scheduled bookings can be cancelled", "Failed to cancel booking")
		}
		return nil
	})
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to cancel booking")
		return
	}

	resp := NewBookingResponse(cancelled)
	logger.Info().Int64("booking_id", cancelled.ID).Msg("Booking cancelled")
	events.Emit(r.Context(), publisher, events.BookingCancelled, resp)

	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Int64("booking_id", cancelled.ID).Msg("Failed to write booking response")
	}
}

func NewBookingResponse(b dbgen.Booking) BookingResponse {
	return BookingResponse{
		ID:             b.ID,
		FacilityID:     b.FacilityID,
		MemberID:       apiutil.Int64Ptr(b.MemberID),
		CoachID:        apiutil.Int64Ptr(b.CoachID),
		LessonCategory: apiutil.StringPtr(b.LessonCategory),
		StartTime:      b.StartTime.UTC(),
		EndTime:        b.EndTime.UTC(),
		Status:         b.Status,
		Notes:          apiutil.StringPtr(b.Notes),
		CancelledAt:    apiutil.TimePtr(b.CancelledAt),
		CreatedAt:      b.CreatedAt.UTC(),
	}
}

func newBookingListResponse(row dbgen.ListBookingsRow) BookingResponse {
	resp := NewBookingResponse(dbgen.Booking{
		ID:             row.ID,
		FacilityID:     row.FacilityID,
		MemberID:       row.MemberID,
		CoachID:        row.CoachID,
		LessonCategory: row.LessonCategory,
		StartTime:      row.StartTime,
		EndTime:        row.EndTime,
		Status:         row.Status,
		Notes:          row.Notes,
		CancelledAt:    row.CancelledAt,
		CreatedAt:      row.CreatedAt,
	})
	resp.MemberName = joinName(row.MemberFirstName, row.MemberLastName)
	resp.CoachName = joinName(row.CoachFirstName, row.CoachLastName)
	return resp
}

func joinName(first, last sql.NullString) string {
	return strings.TrimSpace(first.String + " " + last.String)
}
