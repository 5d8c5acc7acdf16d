package products

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Trainyard/internal/api/apiutil"
	"github.com/codr1/Trainyard/internal/api/payments"
	"github.com/codr1/Trainyard/internal/cache"
	"github.com/codr1/Trainyard/internal/db"
	dbgen "github.com/codr1/Trainyard/internal/db/generated"
	"github.com/codr1/Trainyard/internal/events"
	"github.com/codr1/Trainyard/internal/models"
	"github.com/codr1/Trainyard/internal/request"
)

type purchasePassRequest struct {
	MemberID    int64   `json:"memberId" validate:"required,gt=0"`
	ProductID   int64   `json:"productId" validate:"required,gt=0"`
	Method      string  `json:"method" validate:"required,oneof=cash card transfer"`
	AmountCents *int64  `json:"amountCents" validate:"omitempty,gte=0"`
	StartsAt    *string `json:"startsAt"`
	Note        *string `json:"note" validate:"omitempty,max=500"`
}

type MemberProductResponse struct {
	ID                int64      `json:"id"`
	MemberID          int64      `json:"memberId"`
	ProductID         int64      `json:"productId"`
	ProductName       string     `json:"productName,omitempty"`
	Kind              string     `json:"kind"`
	TotalSessions     *int64     `json:"totalSessions"`
	RemainingSessions *int64     `json:"remainingSessions"`
	StartsAt          time.Time  `json:"startsAt"`
	ExpiresAt         *time.Time `json:"expiresAt"`
	Status            string     `json:"status"`
	PurchasedAt       time.Time  `json:"purchasedAt"`
}

type purchaseResponse struct {
	MemberProduct MemberProductResponse     `json:"memberProduct"`
	Payment       *payments.PaymentResponse `json:"payment"`
}

type listMemberProductsResponse struct {
	MemberProducts []MemberProductResponse `json:"memberProducts"`
}

// POST /api/v1/member-products
func HandleMemberProductPurchase(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	d := loadDB()
	if d == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req purchasePassRequest
	if err := apiutil.DecodeAndValidate(r, &req); err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}
	now := time.Now().UTC()
	startsAt, err := apiutil.OptionalTimestamp(req.StartsAt, "startsAt", time.UTC, now)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.QueryError(err), "Invalid request")
		return
	}
	var amount int64
	if req.AmountCents != nil {
		amount = *req.AmountCents
	}

	ctx, cancel := context.WithTimeout(r.Context(), productQueryTimeout)
	defer cancel()

	var result models.PurchasePassResult
	err = d.RunInTx(ctx, func(txdb *db.DB) error {
		if _, err := txdb.Queries.GetMemberByID(ctx, req.MemberID); err != nil {
			return apiutil.LookupError(err, http.StatusBadRequest, "Member not found", "Failed to load member")
		}

		var err error
		result, err = models.PurchasePass(ctx, txdb.Queries, models.PurchasePassParams{
			MemberID:    req.MemberID,
			ProductID:   req.ProductID,
			Method:      req.Method,
			AmountCents: amount,
			StartsAt:    startsAt,
			PurchasedAt: now,
			Note:        apiutil.ToNullString(req.Note),
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, sql.ErrNoRows):
			return apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Product not found", Err: err}
		case errors.Is(err, models.ErrProductNotSellable):
			return apiutil.HandlerError{Status: http.StatusConflict, Message: "Product cannot be sold as a pass", Err: err}
		default:
			return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to purchase pass", Err: err}
		}
	})
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to purchase pass")
		return
	}

	resp := purchaseResponse{MemberProduct: NewMemberProductResponse(result.MemberProduct)}
	resp.MemberProduct.ProductName = result.Product.Name
	if result.Payment != nil {
		payment := payments.NewPaymentResponse(*result.Payment)
		resp.Payment = &payment
	}

	logger.Info().
		Int64("member_product_id", result.MemberProduct.ID).
		Int64("member_id", req.MemberID).
		Int64("product_id", result.Product.ID).
		Msg("Pass purchased")
	events.Emit(r.Context(), publisher, events.MemberProductPurchased, resp)
	cache.Invalidate(r.Context(), store, cache.ScopeReports)
	if result.Payment != nil {
		payments.SendReceipt(r.Context(), d.Queries, emailClient, *result.Payment, result.Product.Name, logger)
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, resp); err != nil {
		logger.Error().Err(err).Int64("member_product_id", result.MemberProduct.ID).Msg("Failed to write pass response")
	}
}

// GET /api/v1/member-products
func HandleMemberProductList(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), productQueryTimeout)
	defer cancel()

	rows, err := d.Queries.ListMemberProducts(ctx, dbgen.ListMemberProductsParams{
		MemberID: memberID,
		Status:   request.OptionalString(query, "status"),
	})
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load passes")
		return
	}

	resp := listMemberProductsResponse{MemberProducts: make([]MemberProductResponse, 0, len(rows))}
	for _, row := range rows {
		item := NewMemberProductResponse(dbgen.MemberProduct{
			ID:                row.ID,
			MemberID:          row.MemberID,
			ProductID:         row.ProductID,
			Kind:              row.Kind,
			TotalSessions:     row.TotalSessions,
			RemainingSessions: row.RemainingSessions,
			StartsAt:          row.StartsAt,
			ExpiresAt:         row.ExpiresAt,
			Status:            row.Status,
			PurchasedAt:       row.PurchasedAt,
		})
		item.ProductName = row.ProductName
		resp.MemberProducts = append(resp.MemberProducts, item)
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write passes response")
	}
}

// POST /api/v1/member-products/{id}/redeem
func HandleMemberProductRedeem(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	d := loadDB()
	if d == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	passID, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), productQueryTimeout)
	defer cancel()

	var redeemed dbgen.MemberProduct
	err = d.RunInTx(ctx, func(txdb *db.DB) error {
		if _, err := txdb.Queries.GetMemberProductByID(ctx, passID); err != nil {
			return apiutil.LookupError(err, http.StatusNotFound, "Pass not found", "Failed to load pass")
		}

		var err error
		redeemed, err = models.RedeemPass(ctx, txdb.Queries, models.RedeemPassParams{
			MemberProductID: passID,
			Now:             time.Now(),
		})
		if err != nil {
			if errors.Is(err, models.ErrPassUnavailable) {
				return apiutil.HandlerError{Status: http.StatusConflict, Message: "Pass is not usable", Err: err}
			}
			return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to redeem pass", Err: err}
		}
		return nil
	})
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to redeem pass")
		return
	}

	resp := NewMemberProductResponse(redeemed)
	logger.Info().Int64("member_product_id", redeemed.ID).Str("status", redeemed.Status).Msg("Pass redeemed")
	events.Emit(r.Context(), publisher, events.MemberProductRedeemed, resp)
	cache.Invalidate(r.Context(), store, cache.ScopeReports)

	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Int64("member_product_id", redeemed.ID).Msg("Failed to write pass response")
	}
}

func NewMemberProductResponse(mp dbgen.MemberProduct) MemberProductResponse {
	return MemberProductResponse{
		ID:                mp.ID,
		MemberID:          mp.MemberID,
		ProductID:         mp.ProductID,
		Kind:              mp.Kind,
		TotalSessions:     apiutil.Int64Ptr(mp.TotalSessions),
		RemainingSessions: apiutil.Int64Ptr(mp.RemainingSessions),
		StartsAt:          mp.StartsAt.UTC(),
		ExpiresAt:         apiutil.TimePtr(mp.ExpiresAt),
		Status:            mp.Status,
		PurchasedAt:       mp.PurchasedAt.UTC(),
	}
}
