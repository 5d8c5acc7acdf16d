// internal/api/coaches/handlers.go
package coaches

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Trainyard/internal/api/apiutil"
	dbgen "github.com/codr1/Trainyard/internal/db/generated"
	"github.com/codr1/Trainyard/internal/phone"
	"github.com/codr1/Trainyard/internal/request"
)

const coachQueryTimeout = 5 * time.Second

var (
	queries     *dbgen.Queries
	phoneRegion = phone.DefaultRegion
	queriesOnce sync.Once
)

type createCoachRequest struct {
	FacilityID *int64  `json:"facilityId" validate:"omitempty,gt=0"`
	FirstName  string  `json:"firstName" validate:"required,max=80"`
	LastName   string  `json:"lastName" validate:"required,max=80"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Phone      *string `json:"phone"`
	Specialty  *string `json:"specialty" validate:"omitempty,max=120"`
}

type CoachResponse struct {
	ID         int64     `json:"id"`
	FacilityID *int64    `json:"facilityId"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      *string   `json:"email"`
	Phone      *string   `json:"phone"`
	Specialty  *string   `json:"specialty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

type listCoachesResponse struct {
	Coaches []CoachResponse `json:"coaches"`
}

// InitHandlers must be called during server startup before handling requests.
// region is the default region for phone numbers written without a country code.
func InitHandlers(q *dbgen.Queries, region string) {
	if q == nil {
		return
	}
	queriesOnce.Do(func() {
		queries = q
		if strings.TrimSpace(region) != "" {
			phoneRegion = region
		}
	})
}

func loadQueries() *dbgen.Queries {
	return queries
}

// POST /api/v1/coaches
func HandleCoachCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req createCoachRequest
	if err := apiutil.DecodeAndValidate(r, &req); err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}

	phoneNumber, err := apiutil.PhoneField(req.Phone, "phone", phoneRegion)
	if err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), coachQueryTimeout)
	defer cancel()

	if req.FacilityID != nil {
		if _, err := q.GetFacilityByID(ctx, *req.FacilityID); err != nil {
			apiutil.WriteError(w, r, apiutil.LookupError(err, http.StatusBadRequest, "Facility not found", "Failed to load facility"), "Failed to load facility")
			return
		}
	}

	coach, err := q.CreateCoach(ctx, dbgen.CreateCoachParams{
		FacilityID: apiutil.ToNullInt64(req.FacilityID),
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Email:      apiutil.ToNullString(req.Email),
		Phone:      phoneNumber,
		Specialty:  apiutil.ToNullString(req.Specialty),
		Status:     "active",
	})
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to create coach")
		return
	}

	logger.Info().Int64("coach_id", coach.ID).Msg("Coach created")
	if err := apiutil.WriteJSON(w, http.StatusCreated, newCoachResponse(coach)); err != nil {
		logger.Error().Err(err).Int64("coach_id", coach.ID).Msg("Failed to write coach response")
	}
}

// GET /api/v1/coaches
func HandleCoachList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	facilityID, err := request.OptionalID(r.URL.Query(), "facility_id")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.QueryError(err), "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), coachQueryTimeout)
	defer cancel()

	rows, err := q.ListCoaches(ctx, facilityID)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load coaches")
		return
	}

	resp := listCoachesResponse{Coaches: make([]CoachResponse, 0, len(rows))}
	for _, row := range rows {
		resp.Coaches = append(resp.Coaches, newCoachResponse(row))
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write coaches response")
	}
}

func newCoachResponse(c dbgen.Coach) CoachResponse {
	return CoachResponse{
		ID:         c.ID,
		FacilityID: apiutil.Int64Ptr(c.FacilityID),
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Email:      apiutil.StringPtr(c.Email),
		Phone:      apiutil.StringPtr(c.Phone),
		Specialty:  apiutil.StringPtr(c.Specialty),
		Status:     c.Status,
		CreatedAt:  c.CreatedAt.UTC(),
	}
}
