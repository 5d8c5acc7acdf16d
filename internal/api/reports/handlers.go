// internal/api/reports/handlers.go
package reports

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
	dbgen "github.com/codr1/Trainyard/internal/db/generated"
	"github.com/codr1/Trainyard/internal/request"
)

const (
	reportQueryTimeout = 15 * time.Second
	defaultReportTTL   = time.Minute
)

var (
	queries     *dbgen.Queries
	store       cache.Store
	cacheTTL    = defaultReportTTL
	queriesOnce sync.Once
)

type reportWindow struct {
	FacilityID  int64
	Timezone    string
	Location    *time.Location
	DateRange   request.DateRange
	Granularity string
}

func (p reportWindow) cacheKey(report string) string {
	return cache.Key(cache.ScopeReports, url.Values{
		"report":      {report},
		"start":       {p.DateRange.StartDate},
		"end":         {p.DateRange.EndDate},
		"timezone":    {p.Timezone},
		"granularity": {p.Granularity},
		"facility":    {strconv.FormatInt(p.FacilityID, 10)},
	})
}

type reportMeta struct {
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	DateRange   string `json:"dateRange"`
	Timezone    string `json:"timezone"`
	Granularity string `json:"granularity"`
	Cached      bool   `json:"cached"`
}

type revenueResponse struct {
	reportMeta
	Report analytics.RevenueReport `json:"report"`
}

type membersResponse struct {
	reportMeta
	Report analytics.MemberReport `json:"report"`
}

// InitHandlers must be called during server startup before handling requests.
// A nil store disables report caching; ttl <= 0 keeps the default.
func InitHandlers(q *dbgen.Queries, s cache.Store, ttl time.Duration) {
	if q == nil {
		return
	}
	queriesOnce.Do(func() {
		queries = q
		store = s
		if ttl > 0 {
			cacheTTL = ttl
		}
	})
}

func loadQueries() *dbgen.Queries {
	return queries
}

// GET /api/v1/reports/revenue
func HandleRevenueReport(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportQueryTimeout)
	defer cancel()

	window, err := parseReportWindow(ctx, q, r.URL.Query())
	if err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}

	report, cached, err := cache.GetOrCompute(ctx, store, window.cacheKey("revenue"), cacheTTL, func() (analytics.RevenueReport, error) {
		return analytics.CalculateRevenue(ctx, q, window.DateRange.Start, window.DateRange.End, window.Granularity, window.Location)
	})
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to build revenue report")
		return
	}

	resp := revenueResponse{reportMeta: window.meta(cached), Report: report}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write revenue report")
	}
}

// GET /api/v1/reports/members
func HandleMemberReport(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportQueryTimeout)
	defer cancel()

	window, err := parseReportWindow(ctx, q, r.URL.Query())
	if err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}

	report, cached, err := cache.GetOrCompute(ctx, store, window.cacheKey("members"), cacheTTL, func() (analytics.MemberReport, error) {
		return analytics.CalculateMemberReport(ctx, q, window.DateRange.Start, window.DateRange.End, window.Granularity, window.Location)
	})
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to build member report")
		return
	}

	resp := membersResponse{reportMeta: window.meta(cached), Report: report}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write member report")
	}
}

// parseReportWindow resolves the facility time zone, date range and
// granularity shared by every report.
func parseReportWindow(ctx context.Context, q *dbgen.Queries, query url.Values) (reportWindow, error) {
	window := reportWindow{Timezone: "UTC", Location: time.UTC}

	facilityID, err := request.OptionalID(query, "facility_id")
	if err != nil {
		return reportWindow{}, apiutil.QueryError(err)
	}
	if facilityID.Valid {
		facility, err := q.GetFacilityByID(ctx, facilityID.Int64)
		if err != nil {
			return reportWindow{}, apiutil.LookupError(err, http.StatusBadRequest, "Facility not found", "Failed to load facility")
		}
		loc, err := request.LoadLocation(facility.Timezone)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Int64("facility_id", facility.ID).Msg("Falling back to UTC for facility timezone")
		}
		window.FacilityID = facility.ID
		window.Timezone = loc.String()
		window.Location = loc
	}

	window.Granularity, err = request.ParseGranularity(query.Get("granularity"))
	if err != nil {
		return reportWindow{}, apiutil.QueryError(err)
	}
	window.DateRange, err = request.ParseDateRange(query, window.Location)
	if err != nil {
		return reportWindow{}, apiutil.QueryError(err)
	}
	if err := window.DateRange.CheckSeriesSpan(window.Granularity); err != nil {
		return reportWindow{}, apiutil.QueryError(err)
	}
	return window, nil
}

func (p reportWindow) meta(cached bool) reportMeta {
	return reportMeta{
		StartDate:   p.DateRange.StartDate,
		EndDate:     p.DateRange.EndDate,
		DateRange:   p.DateRange.Preset,
		Timezone:    p.Timezone,
		Granularity: p.Granularity,
		Cached:      cached,
	}
}
