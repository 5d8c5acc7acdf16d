// internal/api/facilities/handlers.go
package facilities

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Trainyard/internal/api/apiutil"
	dbgen "github.com/codr1/Trainyard/internal/db/generated"
)

const facilityQueryTimeout = 5 * time.Second

var (
	queries     *dbgen.Queries
	queriesOnce sync.Once
)

type createFacilityRequest struct {
	Name     string  `json:"name" validate:"required,max=120"`
	Slug     string  `json:"slug" validate:"required,max=64"`
	Timezone string  `json:"timezone" validate:"omitempty,timezone"`
	Capacity int64   `json:"capacity" validate:"gte=0"`
	Status   *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

type FacilityResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Timezone  string    `json:"timezone"`
	Capacity  int64     `json:"capacity"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type listFacilitiesResponse struct {
	Facilities []FacilityResponse `json:"facilities"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(q *dbgen.Queries) {
	if q == nil {
		return
	}
	queriesOnce.Do(func() {
		queries = q
	})
}

func loadQueries() *dbgen.Queries {
	return queries
}

// POST /api/v1/facilities
func HandleFacilityCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req createFacilityRequest
	if err := apiutil.DecodeAndValidate(r, &req); err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !validSlug(slug) {
		apiutil.WriteErrorMessage(w, r, http.StatusBadRequest, "slug may only contain lowercase letters, digits and hyphens")
		return
	}
	timezone := strings.TrimSpace(req.Timezone)
	if timezone == "" {
		timezone = "UTC"
	}
	status := "active"
	if req.Status != nil {
		status = *req.Status
	}

	ctx, cancel := context.WithTimeout(r.Context(), facilityQueryTimeout)
	defer cancel()

	facility, err := q.CreateFacility(ctx, dbgen.CreateFacilityParams{
		Name:     strings.TrimSpace(req.Name),
		Slug:     slug,
		Timezone: timezone,
		Capacity: req.Capacity,
		Status:   status,
	})
	if err != nil {
		if apiutil.IsSQLiteUniqueViolation(err) {
			apiutil.WriteErrorMessage(w, r, http.StatusConflict, "Facility slug already exists")
			return
		}
		apiutil.WriteError(w, r, err, "Failed to create facility")
		return
	}

	logger.Info().Int64("facility_id", facility.ID).Str("slug", facility.Slug).Msg("Facility created")
	if err := apiutil.WriteJSON(w, http.StatusCreated, NewFacilityResponse(facility)); err != nil {
		logger.Error().Err(err).Int64("facility_id", facility.ID).Msg("Failed to write facility response")
	}
}

// GET /api/v1/facilities
func HandleFacilityList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), facilityQueryTimeout)
	defer cancel()

	rows, err := q.ListFacilities(ctx)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load facilities")
		return
	}

	resp := listFacilitiesResponse{Facilities: make([]FacilityResponse, 0, len(rows))}
	for _, row := range rows {
		resp.Facilities = append(resp.Facilities, NewFacilityResponse(row))
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write facilities response")
	}
}

func NewFacilityResponse(f dbgen.Facility) FacilityResponse {
	return FacilityResponse{
		ID:        f.ID,
		Name:      f.Name,
		Slug:      f.Slug,
		Timezone:  f.Timezone,
		Capacity:  f.Capacity,
		Status:    f.Status,
		CreatedAt: f.CreatedAt.UTC(),
	}
}

func validSlug(slug string) bool {
	if slug == "" || strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return false
	}
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return true
}
