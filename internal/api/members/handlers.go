// internal/api/members/handlers.go
package members

import (
	"context"
	"database/sql"
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

const (
	memberQueryTimeout = 5 * time.Second
	defaultMemberLimit = 50
	maxMemberLimit     = 200
	birthDateLayout    = "2006-01-02"
)

var (
	queries     *dbgen.Queries
	phoneRegion = phone.DefaultRegion
	queriesOnce sync.Once
)

type createMemberRequest struct {
	FirstName string  `json:"firstName" validate:"required,max=80"`
	LastName  string  `json:"lastName" validate:"required,max=80"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone"`
	Gender    *string `json:"gender" validate:"omitempty,oneof=female male other"`
	BirthDate *string `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
	Grade     string  `json:"grade" validate:"max=40"`
	Status    *string `json:"status" validate:"omitempty,oneof=active suspended inactive"`
	JoinedAt  *string `json:"joinedAt"`
}

type MemberResponse struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	Gender    *string   `json:"gender"`
	BirthDate *string   `json:"birthDate"`
	Grade     string    `json:"grade"`
	Status    string    `json:"status"`
	JoinedAt  time.Time `json:"joinedAt"`
	CreatedAt time.Time `json:"createdAt"`
}

type MemberPassResponse struct {
	ID                int64      `json:"id"`
	ProductID         int64      `json:"productId"`
	ProductName       string     `json:"productName"`
	Kind              string     `json:"kind"`
	TotalSessions     *int64     `json:"totalSessions"`
	RemainingSessions *int64     `json:"remainingSessions"`
	StartsAt          time.Time  `json:"startsAt"`
	ExpiresAt         *time.Time `json:"expiresAt"`
	Status            string     `json:"status"`
}

type memberDetailResponse struct {
	MemberResponse
	Passes []MemberPassResponse `json:"passes"`
}

type listMembersResponse struct {
	Members []MemberResponse `json:"members"`
	Limit   int64            `json:"limit"`
	Offset  int64            `json:"offset"`
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

// POST /api/v1/members
func HandleMemberCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req createMemberRequest
	if err := apiutil.DecodeAndValidate(r, &req); err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}

	params, err := buildCreateParams(req, time.Now())
	if err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), memberQueryTimeout)
	defer cancel()

	member, err := q.CreateMember(ctx, params)
	if err != nil {
		if apiutil.IsSQLiteUniqueViolation(err) {
			apiutil.WriteErrorMessage(w, r, http.StatusConflict, "A member with this email already exists")
			return
		}
		apiutil.WriteError(w, r, err, "Failed to create member")
		return
	}

	logger.Info().Int64("member_id", member.ID).Msg("Member registered")
	if err := apiutil.WriteJSON(w, http.StatusCreated, NewMemberResponse(member)); err != nil {
		logger.Error().Err(err).Int64("member_id", member.ID).Msg("Failed to write member response")
	}
}

// GET /api/v1/members
func HandleMemberList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	query := r.URL.Query()
	limit, err := request.NonNegativeInt(query, "limit", defaultMemberLimit)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.QueryError(err), "Invalid request")
		return
	}
	if limit == 0 {
		limit = defaultMemberLimit
	}
	if limit > maxMemberLimit {
		limit = maxMemberLimit
	}
	offset, err := request.NonNegativeInt(query, "offset", 0)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.QueryError(err), "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), memberQueryTimeout)
	defer cancel()

	rows, err := q.ListMembers(ctx, dbgen.ListMembersParams{
		SearchTerm: request.OptionalString(query, "search"),
		Grade:      request.OptionalString(query, "grade"),
		Status:     request.OptionalString(query, "status"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to search members")
		return
	}

	resp := listMembersResponse{Members: make([]MemberResponse, 0, len(rows)), Limit: limit, Offset: offset}
	for _, row := range rows {
		resp.Members = append(resp.Members, NewMemberResponse(row))
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write members response")
	}
}

// GET /api/v1/members/{id}
func HandleMemberDetail(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	memberID, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), memberQueryTimeout)
	defer cancel()

	member, err := q.GetMemberByID(ctx, memberID)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.LookupError(err, http.StatusNotFound, "Member not found", "Failed to load member"), "Failed to load member")
		return
	}

	passes, err := q.ListMemberProducts(ctx, dbgen.ListMemberProductsParams{
		MemberID: sql.NullInt64{Int64: member.ID, Valid: true},
	})
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load member passes")
		return
	}

	resp := memberDetailResponse{
		MemberResponse: NewMemberResponse(member),
		Passes:         make([]MemberPassResponse, 0, len(passes)),
	}
	for _, pass := range passes {
		resp.Passes = append(resp.Passes, MemberPassResponse{
			ID:                pass.ID,
			ProductID:         pass.ProductID,
			ProductName:       pass.ProductName,
			Kind:              pass.Kind,
			TotalSessions:     apiutil.Int64Ptr(pass.TotalSessions),
			RemainingSessions: apiutil.Int64Ptr(pass.RemainingSessions),
			StartsAt:          pass.StartsAt.UTC(),
			ExpiresAt:         apiutil.TimePtr(pass.ExpiresAt),
			Status:            pass.Status,
		})
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Int64("member_id", member.ID).Msg("Failed to write member detail response")
	}
}

func buildCreateParams(req createMemberRequest, now time.Time) (dbgen.CreateMemberParams, error) {
	phoneNumber, err := apiutil.PhoneField(req.Phone, "phone", phoneRegion)
	if err != nil {
		return dbgen.CreateMemberParams{}, err
	}

	var birthDate sql.NullTime
	if req.BirthDate != nil && strings.TrimSpace(*req.BirthDate) != "" {
		parsed, err := time.Parse(birthDateLayout, strings.TrimSpace(*req.BirthDate))
		if err != nil {
			return dbgen.CreateMemberParams{}, apiutil.FieldError{Field: "birthDate", Reason: "must match layout 2006-01-02"}
		}
		if parsed.After(now) {
			return dbgen.CreateMemberParams{}, apiutil.FieldError{Field: "birthDate", Reason: "must not be in the future"}
		}
		birthDate = sql.NullTime{Time: parsed.UTC(), Valid: true}
	}

	joinedAt, err := apiutil.OptionalTimestamp(req.JoinedAt, "joinedAt", time.UTC, now)
	if err != nil {
		return dbgen.CreateMemberParams{}, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err}
	}

	status := "active"
	if req.Status != nil {
		status = *req.Status
	}

	email := apiutil.ToNullString(req.Email)
	if email.Valid {
		email.String = strings.ToLower(email.String)
	}

	return dbgen.CreateMemberParams{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     email,
		Phone:     phoneNumber,
		Gender:    apiutil.ToNullString(req.Gender),
		BirthDate: birthDate,
		Grade:     strings.TrimSpace(req.Grade),
		Status:    status,
		JoinedAt:  joinedAt,
	}, nil
}

func NewMemberResponse(m dbgen.Member) MemberResponse {
	var birthDate *string
	if m.BirthDate.Valid {
		formatted := m.BirthDate.Time.UTC().Format(birthDateLayout)
		birthDate = &formatted
	}
	return MemberResponse{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     apiutil.StringPtr(m.Email),
		Phone:     apiutil.StringPtr(m.Phone),
		Gender:    apiutil.StringPtr(m.Gender),
		BirthDate: birthDate,
		Grade:     m.Grade,
		Status:    m.Status,
		JoinedAt:  m.JoinedAt.UTC(),
		CreatedAt: m.CreatedAt.UTC(),
	}
}
