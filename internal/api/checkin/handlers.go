// internal/api/checkin/handlers.go
package checkin

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Trainyard/internal/api/apiutil"
	"github.com/codr1/Trainyard/internal/cache"
	"github.com/codr1/Trainyard/internal/db"
	dbgen "github.com/codr1/Trainyard/internal/db/generated"
	"github.com/codr1/Trainyard/internal/events"
	"github.com/codr1/Trainyard/internal/models"
	"github.com/codr1/Trainyard/internal/ratelimit"
	"github.com/codr1/Trainyard/internal/request"
)

const checkinQueryTimeout = 5 * time.Second

const (
	reasonMembershipInactive = "membership_inactive"
	reasonPassUnavailable    = "pass_unavailable"
	reasonBookingMismatch    = "booking_mismatch"
)

var (
	database    *db.DB
	limiter     *ratelimit.Limiter
	trustProxy  bool
	publisher   events.Publisher
	store       cache.Store
	handlerOnce sync.Once
)

type checkinRequest struct {
	MemberID        int64  `json:"memberId" validate:"required,gt=0"`
	FacilityID      int64  `json:"facilityId" validate:"required,gt=0"`
	BookingID       *int64 `json:"bookingId" validate:"omitempty,gt=0"`
	MemberProductID *int64 `json:"memberProductId" validate:"omitempty,gt=0"`
	Override        bool   `json:"override"`
}

type checkinBlockResponse struct {
	Status       string `json:"status"`
	Reason       string `json:"reason"`
	MemberStatus string `json:"memberStatus,omitempty"`
}

type rateLimitedResponse struct {
	Status            string `json:"status"`
	Reason            string `json:"reason"`
	RetryAfterSeconds int64  `json:"retryAfterSeconds"`
}

type AttendanceResponse struct {
	ID              int64      `json:"id"`
	MemberID        int64      `json:"memberId"`
	MemberName      string     `json:"memberName,omitempty"`
	FacilityID      int64      `json:"facilityId"`
	BookingID       *int64     `json:"bookingId"`
	MemberProductID *int64     `json:"memberProductId"`
	CheckedInAt     time.Time  `json:"checkedInAt"`
	CheckedOutAt    *time.Time `json:"checkedOutAt"`
}

type checkinResponse struct {
	Status     string             `json:"status"`
	Attendance AttendanceResponse `json:"attendance"`
	Override   bool               `json:"override"`
}

type listAttendanceResponse struct {
	Attendance []AttendanceResponse `json:"attendance"`
	StartDate  string               `json:"startDate"`
	EndDate    string               `json:"endDate"`
}

// blockedError rejects a check-in with a machine-readable reason.
type blockedError struct {
	reason string
}

func (e blockedError) Error() string {
	return "check-in blocked: " + e.reason
}

// InitHandlers must be called during server startup before handling requests.
// A nil limiter disables the repeat check-in cooldown.
func InitHandlers(d *db.DB, l *ratelimit.Limiter, trustProxyHeaders bool, p events.Publisher, s cache.Store) {
	if d == nil {
		return
	}
	handlerOnce.Do(func() {
		database = d
		limiter = l
		trustProxy = trustProxyHeaders
		publisher = p
		store = s
	})
}

func loadDB() *db.DB {
	return database
}

// POST /api/v1/checkin
func HandleCheckin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	d := loadDB()
	if d == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req checkinRequest
	if err := apiutil.DecodeAndValidate(r, &req); err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), checkinQueryTimeout)
	defer cancel()

	facility, err := d.Queries.GetFacilityByID(ctx, req.FacilityID)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.LookupError(err, http.StatusBadRequest, "Facility not found", "Failed to load facility"), "Failed to load facility")
		return
	}
	if facility.Status != "active" {
		apiutil.WriteErrorMessage(w, r, http.StatusConflict, "Facility is not active")
		return
	}

	member, err := d.Queries.GetMemberByID(ctx, req.MemberID)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.LookupError(err, http.StatusNotFound, "Member not found", "Failed to fetch member"), "Failed to fetch member")
		return
	}

	if !req.Override && member.Status != "active" {
		respondCheckinBlocked(w, r, checkinBlockResponse{
			Status:       "blocked",
			Reason:       reasonMembershipInactive,
			MemberStatus: member.Status,
		})
		return
	}

	attempt := ratelimit.Key{
		MemberID:   member.ID,
		FacilityID: facility.ID,
		IP:         ratelimit.ClientIP(r, trustProxy),
	}
	var reservation *ratelimit.Reservation
	if limiter != nil {
		var result ratelimit.LimitResult
		if result, reservation = limiter.Reserve(attempt); !result.Allowed {
			ratelimit.LogRejected(r.Context(), attempt, result)
			w.Header().Set("Retry-After", strconv.FormatInt(result.RetryAfterSeconds(), 10))
			if err := apiutil.WriteJSON(w, http.StatusTooManyRequests, rateLimitedResponse{
				Status:            "rate_limited",
				Reason:            result.Reason,
				RetryAfterSeconds: result.RetryAfterSeconds(),
			}); err != nil {
				logger.Error().Err(err).Msg("Failed to write rate limited response")
			}
			return
		}
	}

	now := time.Now().UTC()
	var attendance dbgen.Attendance
	err = d.RunInTx(ctx, func(txdb *db.DB) error {
		if req.BookingID != nil {
			booking, err := txdb.Queries.GetBookingByID(ctx, *req.BookingID)
			if err != nil {
				return apiutil.LookupError(err, http.StatusBadRequest, "Booking not found", "Failed to load booking")
			}
			if booking.FacilityID != facility.ID || !booking.MemberID.Valid || booking.MemberID.Int64 != member.ID {
				return blockedError{reason: reasonBookingMismatch}
			}
			if booking.Status == "cancelled" {
				return apiutil.HandlerError{Status: http.StatusConflict, Message: "Booking is cancelled"}
			}
		}

		if req.MemberProductID != nil {
			_, err := models.RedeemPass(ctx, txdb.Queries, models.RedeemPassParams{
				MemberProductID: *req.MemberProductID,
				MemberID:        member.ID,
				Now:             now,
			})
			if err != nil {
				if errors.Is(err, models.ErrPassUnavailable) {
					return blockedError{reason: reasonPassUnavailable}
				}
				return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to redeem pass", Err: err}
			}
		}

		var err error
		attendance, err = txdb.Queries.CreateAttendance(ctx, dbgen.CreateAttendanceParams{
			MemberID:        member.ID,
			FacilityID:      facility.ID,
			BookingID:       apiutil.ToNullInt64(req.BookingID),
			MemberProductID: apiutil.ToNullInt64(req.MemberProductID),
			CheckedInAt:     now,
		})
		if err != nil {
			return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to check in member", Err: err}
		}
		return nil
	})
	if err != nil {
		reservation.Release()
		var blocked blockedError
		if errors.As(err, &blocked) {
			respondCheckinBlocked(w, r, checkinBlockResponse{Status: "blocked", Reason: blocked.reason})
			return
		}
		apiutil.WriteError(w, r, err, "Failed to check in member")
		return
	}

	resp := checkinResponse{
		Status:     "checked_in",
		Attendance: newAttendanceResponse(attendance),
		Override:   req.Override && member.Status != "active",
	}
	resp.Attendance.MemberName = strings.TrimSpace(member.FirstName + " " + member.LastName)

	logger.Info().
		Int64("attendance_id", attendance.ID).
		Int64("member_id", member.ID).
		Int64("facility_id", facility.ID).
		Bool("override", resp.Override).
		Msg("Member checked in")
	events.Emit(r.Context(), publisher, events.AttendanceCheckedIn, resp.Attendance)
	cache.Invalidate(r.Context(), store, cache.ScopeReports)

	if err := apiutil.WriteJSON(w, http.StatusCreated, resp); err != nil {
		logger.Error().Err(err).Int64("attendance_id", attendance.ID).Msg("Failed to write check-in response")
	}
}

// GET /api/v1/attendance
func HandleAttendanceList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	d := loadDB()
	if d == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	query := r.URL.Query()
	var params dbgen.ListAttendanceParams
	var err error
	if params.FacilityID, err = request.OptionalID(query, "facility_id"); err != nil {
		apiutil.WriteError(w, r, apiutil.QueryError(err), "Invalid request")
		return
	}
	if params.MemberID, err = request.OptionalID(query, "member_id"); err != nil {
		apiutil.WriteError(w, r, apiutil.QueryError(err), "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), checkinQueryTimeout)
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

	rows, err := d.Queries.ListAttendance(ctx, params)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load attendance")
		return
	}

	resp := listAttendanceResponse{
		Attendance: make([]AttendanceResponse, 0, len(rows)),
		StartDate:  dateRange.StartDate,
		EndDate:    dateRange.EndDate,
	}
	for _, row := range rows {
		item := newAttendanceResponse(dbgen.Attendance{
			ID:              row.ID,
			MemberID:        row.MemberID,
			FacilityID:      row.FacilityID,
			BookingID:       row.BookingID,
			MemberProductID: row.MemberProductID,
			CheckedInAt:     row.CheckedInAt,
			CheckedOutAt:    row.CheckedOutAt,
		})
		item.MemberName = strings.TrimSpace(row.MemberFirstName + " " + row.MemberLastName)
		resp.Attendance = append(resp.Attendance, item)
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write attendance response")
	}
}

// POST /api/v1/attendance/{id}/checkout
func HandleCheckout(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	d := loadDB()
	if d == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	attendanceID, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), checkinQueryTimeout)
	defer cancel()

	if _, err := d.Queries.GetAttendanceByID(ctx, attendanceID); err != nil {
		apiutil.WriteError(w, r, apiutil.LookupError(err, http.StatusNotFound, "Attendance not found", "Failed to load attendance"), "Failed to load attendance")
		return
	}

	attendance, err := d.Queries.CheckoutAttendance(ctx, dbgen.CheckoutAttendanceParams{
		ID:           attendanceID,
		CheckedOutAt: sql.NullTime{Time: time.Now().UTC(), Valid: true},
	})
	if err != nil {
		apiutil.WriteError(w, r, apiutil.LookupError(err, http.StatusConflict, "Member already checked out", "Failed to check out member"), "Failed to check out member")
		return
	}

	logger.Info().Int64("attendance_id", attendance.ID).Msg("Member checked out")
	if err := apiutil.WriteJSON(w, http.StatusOK, newAttendanceResponse(attendance)); err != nil {
		logger.Error().Err(err).Int64("attendance_id", attendance.ID).Msg("Failed to write checkout response")
	}
}

func newAttendanceResponse(a dbgen.Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:              a.ID,
		MemberID:        a.MemberID,
		FacilityID:      a.FacilityID,
		BookingID:       apiutil.Int64Ptr(a.BookingID),
		MemberProductID: apiutil.Int64Ptr(a.MemberProductID),
		CheckedInAt:     a.CheckedInAt.UTC(),
		CheckedOutAt:    apiutil.TimePtr(a.CheckedOutAt),
	}
}

func respondCheckinBlocked(w http.ResponseWriter, r *http.Request, response checkinBlockResponse) {
	if err := apiutil.WriteJSON(w, http.StatusConflict, response); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write blocked check-in response")
	}
}
