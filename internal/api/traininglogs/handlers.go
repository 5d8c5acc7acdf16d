// internal/api/traininglogs/handlers.go
package traininglogs

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Trainyard/internal/analytics"
	"github.com/codr1/Trainyard/internal/api/apiutil"
	"github.com/codr1/Trainyard/internal/cache"
	"github.com/codr1/Trainyard/internal/db"
	dbgen "github.com/codr1/Trainyard/internal/db/generated"
	"github.com/codr1/Trainyard/internal/events"
	"github.com/codr1/Trainyard/internal/request"
)

const (
	trainingQueryTimeout = 5 * time.Second
	rankingQueryTimeout  = 15 * time.Second
	defaultRankingLimit  = 10
	defaultRankingTTL    = time.Minute
)

var (
	database    *db.DB
	publisher   events.Publisher
	store       cache.Store
	cacheTTL    = defaultRankingTTL
	handlerOnce sync.Once
)

type createTrainingLogRequest struct {
	MemberID int64    `json:"memberId" validate:"required,gt=0"`
	CoachID  *int64   `json:"coachId" validate:"omitempty,gt=0"`
	LoggedOn string   `json:"loggedOn" validate:"required"`
	Speed    *float64 `json:"speed" validate:"omitempty,gte=0"`
	Power    *float64 `json:"power" validate:"omitempty,gte=0"`
	Distance *float64 `json:"distance" validate:"omitempty,gte=0"`
	Notes    *string  `json:"notes" validate:"omitempty,max=1000"`
}

type TrainingLogResponse struct {
	ID        int64     `json:"id"`
	MemberID  int64     `json:"memberId"`
	CoachID   *int64    `json:"coachId"`
	LoggedOn  time.Time `json:"loggedOn"`
	Speed     *float64  `json:"speed"`
	Power     *float64  `json:"power"`
	Distance  *float64  `json:"distance"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}

type listTrainingLogsResponse struct {
	TrainingLogs []TrainingLogResponse `json:"trainingLogs"`
	StartDate    string                `json:"startDate"`
	EndDate      string                `json:"endDate"`
}

type rankingsResponse struct {
	StartDate string             `json:"startDate"`
	EndDate   string             `json:"endDate"`
	DateRange string             `json:"dateRange"`
	Limit     int64              `json:"limit"`
	Cached    bool               `json:"cached"`
	Rankings  analytics.Rankings `json:"rankings"`
}

// InitHandlers must be called during server startup before handling requests.
// A nil store disables ranking caching; ttl <= 0 keeps the default.
func InitHandlers(d *db.DB, p events.Publisher, s cache.Store, ttl time.Duration) {
	if d == nil {
		return
	}
	handlerOnce.Do(func() {
		database = d
		publisher = p
		store = s
		if ttl > 0 {
			cacheTTL = ttl
		}
	})
}

func loadDB() *db.DB {
	return database
}

// POST /api/v1/training-logs
func HandleTrainingLogCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	d := loadDB()
	if d == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req createTrainingLogRequest
	if err := apiutil.DecodeAndValidate(r, &req); err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}
	if req.Speed == nil && req.Power == nil && req.Distance == nil {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "metrics", Reason: "must include at least one of speed, power or distance"}, "Invalid request")
		return
	}
	loggedOn, err := apiutil.ParseTimestamp(req.LoggedOn, "loggedOn", time.UTC)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.QueryError(err), "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), trainingQueryTimeout)
	defer cancel()

	if _, err := d.Queries.GetMemberByID(ctx, req.MemberID); err != nil {
		apiutil.WriteError(w, r, apiutil.LookupError(err, http.StatusBadRequest, "Member not found", "Failed to load member"), "Failed to load member")
		return
	}
	if req.CoachID != nil {
		if _, err := d.Queries.GetCoachByID(ctx, *req.CoachID); err != nil {
			apiutil.WriteError(w, r, apiutil.LookupError(err, http.StatusBadRequest, "Coach not found", "Failed to load coach"), "Failed to load coach")
			return
		}
	}

	entry, err := d.Queries.CreateTrainingLog(ctx, dbgen.CreateTrainingLogParams{
		MemberID: req.MemberID,
		CoachID:  apiutil.ToNullInt64(req.CoachID),
		LoggedOn: loggedOn,
		Speed:    apiutil.ToNullFloat64(req.Speed),
		Power:    apiutil.ToNullFloat64(req.Power),
		Distance: apiutil.ToNullFloat64(req.Distance),
		Notes:    apiutil.ToNullString(req.Notes),
	})
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to record training log")
		return
	}

	resp := NewTrainingLogResponse(entry)
	logger.Info().Int64("training_log_id", entry.ID).Int64("member_id", entry.MemberID).Msg("Training log recorded")
	events.Emit(r.Context(), publisher, events.TrainingLogCreated, resp)
	cache.Invalidate(r.Context(), store, cache.ScopeRankings)

	if err := apiutil.WriteJSON(w, http.StatusCreated, resp); err != nil {
		logger.Error().Err(err).Int64("training_log_id", entry.ID).Msg("Failed to write training log response")
	}
}

// GET /api/v1/training-logs
func HandleTrainingLogList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	d := loadDB()
	if d == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	query := r.URL.Query()
	memberID, err := request.OptionalID(query, "member_id")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.QueryError(err), "Invalid request")
		return
	}
	dateRange, err := request.ParseDateRange(query, time.UTC)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.QueryError(err), "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), trainingQueryTimeout)
	defer cancel()

	rows, err := d.Queries.ListTrainingLogs(ctx, dbgen.ListTrainingLogsParams{
		MemberID:  memberID,
		StartTime: dateRange.StartUTC(),
		EndTime:   dateRange.EndUTC(),
	})
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load training logs")
		return
	}

	resp := listTrainingLogsResponse{
		TrainingLogs: make([]TrainingLogResponse, 0, len(rows)),
		StartDate:    dateRange.StartDate,
		EndDate:      dateRange.EndDate,
	}
	for _, row := range rows {
		resp.TrainingLogs = append(resp.TrainingLogs, NewTrainingLogResponse(row))
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write training logs response")
	}
}

// GET /api/v1/training-logs/rankings
func HandleRankings(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	d := loadDB()
	if d == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	query := r.URL.Query()
	limit, err := request.NonNegativeInt(query, "limit", defaultRankingLimit)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.QueryError(err), "Invalid request")
		return
	}
	dateRange, err := request.ParseDateRange(query, time.UTC)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.QueryError(err), "Invalid request")
		return
	}
	grade := request.OptionalString(query, "grade").String

	ctx, cancel := context.WithTimeout(r.Context(), rankingQueryTimeout)
	defer cancel()

	key := cache.Key(cache.ScopeRankings, url.Values{
		"start": {dateRange.StartDate},
		"end":   {dateRange.EndDate},
		"grade": {grade},
		"limit": {strconv.FormatInt(limit, 10)},
	})
	rankings, cached, err := cache.GetOrCompute(ctx, store, key, cacheTTL, func() (analytics.Rankings, error) {
		return analytics.CalculateRankings(ctx, d.Queries, dateRange.Start, dateRange.End, analytics.RankingOptions{
			Grade: grade,
			Limit: int(limit),
		})
	})
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to calculate rankings")
		return
	}

	resp := rankingsResponse{
		StartDate: dateRange.StartDate,
		EndDate:   dateRange.EndDate,
		DateRange: dateRange.Preset,
		Limit:     limit,
		Cached:    cached,
		Rankings:  rankings,
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write rankings response")
	}
}

func NewTrainingLogResponse(t dbgen.TrainingLog) TrainingLogResponse {
	return TrainingLogResponse{
		ID:        t.ID,
		MemberID:  t.MemberID,
		CoachID:   apiutil.Int64Ptr(t.CoachID),
		LoggedOn:  t.LoggedOn.UTC(),
		Speed:     apiutil.Float64Ptr(t.Speed),
		Power:     apiutil.Float64Ptr(t.Power),
		Distance:  apiutil.Float64Ptr(t.Distance),
		Notes:     apiutil.StringPtr(t.Notes),
		CreatedAt: t.CreatedAt.UTC(),
	}
}
