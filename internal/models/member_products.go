// internal/models/member_products.go
package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbgen "github.com/codr1/Trainyard/internal/db/generated"
)

const (
	PassKindCount  = "count"
	PassKindPeriod = "period"

	PassStatusActive    = "active"
	PassStatusExhausted = "exhausted"
	PassStatusExpired   = "expired"

	ProductCategoryCountPass  = "count_pass"
	ProductCategoryPeriodPass = "period_pass"
)

var (
	ErrPassUnavailable    = errors.New("pass unavailable")
	ErrProductNotSellable = errors.New("product cannot be sold as a pass")
)

type PurchasePassParams struct {
	MemberID    int64
	ProductID   int64
	Method      string
	AmountCents int64
	StartsAt    time.Time
	PurchasedAt time.Time
	Note        sql.NullString
}

type PurchasePassResult struct {
	Product       dbgen.Product
	MemberProduct dbgen.MemberProduct
	Payment       *dbgen.Payment
}

// PurchasePass creates a member pass from an active pass product and records
// its payment. AmountCents of zero charges the product price; free products
// record no payment. Callers should pass a transactional querier so the pass
// and payment are written together.
func PurchasePass(ctx context.Context, q dbgen.Querier, params PurchasePassParams) (PurchasePassResult, error) {
	if q == nil {
		return PurchasePassResult{}, fmt.Errorf("queries are required")
	}
	if params.MemberID <= 0 {
		return PurchasePassResult{}, fmt.Errorf("member_id must be a positive integer")
	}
	if params.ProductID <= 0 {
		return PurchasePassResult{}, fmt.Errorf("product_id must be a positive integer")
	}
	if params.AmountCents < 0 {
		return PurchasePassResult{}, fmt.Errorf("amount must not be negative")
	}

	purchasedAt := params.PurchasedAt
	if purchasedAt.IsZero() {
		purchasedAt = time.Now()
	}
	purchasedAt = purchasedAt.UTC()
	startsAt := params.StartsAt
	if startsAt.IsZero() {
		startsAt = purchasedAt
	}
	startsAt = startsAt.UTC()

	product, err := q.GetProductByID(ctx, params.ProductID)
	if err != nil {
		return PurchasePassResult{}, err
	}
	if product.Status != "active" {
		return PurchasePassResult{}, ErrProductNotSellable
	}

	create := dbgen.CreateMemberProductParams{
		MemberID:    params.MemberID,
		ProductID:   product.ID,
		StartsAt:    startsAt,
		PurchasedAt: purchasedAt,
	}
	switch product.Category {
	case ProductCategoryCountPass:
		if !product.SessionCount.Valid {
			return PurchasePassResult{}, ErrProductNotSellable
		}
		create.Kind = PassKindCount
		create.TotalSessions = product.SessionCount
		create.RemainingSessions = product.SessionCount
		if product.ValidDays.Valid {
			create.ExpiresAt = sql.NullTime{Time: startsAt.AddDate(0, 0, int(product.ValidDays.Int64)), Valid: true}
		}
	case ProductCategoryPeriodPass:
		if !product.ValidDays.Valid {
			return PurchasePassResult{}, ErrProductNotSellable
		}
		create.Kind = PassKindPeriod
		create.ExpiresAt = sql.NullTime{Time: startsAt.AddDate(0, 0, int(product.ValidDays.Int64)), Valid: true}
	default:
		return PurchasePassResult{}, ErrProductNotSellable
	}

	memberProduct, err := q.CreateMemberProduct(ctx, create)
	if err != nil {
		return PurchasePassResult{}, fmt.Errorf("create member product: %w", err)
	}

	result := PurchasePassResult{Product: product, MemberProduct: memberProduct}

	amount := params.AmountCents
	if amount == 0 {
		amount = product.PriceCents
	}
	if amount == 0 {
		return result, nil
	}

	payment, err := q.CreatePayment(ctx, dbgen.CreatePaymentParams{
		MemberID:        sql.NullInt64{Int64: params.MemberID, Valid: true},
		ProductID:       sql.NullInt64{Int64: product.ID, Valid: true},
		MemberProductID: sql.NullInt64{Int64: memberProduct.ID, Valid: true},
		AmountCents:     amount,
		Method:          params.Method,
		PaidAt:          purchasedAt,
		Note:            params.Note,
	})
	if err != nil {
		return PurchasePassResult{}, fmt.Errorf("create payment: %w", err)
	}
	result.Payment = &payment
	return result, nil
}

type RedeemPassParams struct {
	MemberProductID int64
	// MemberID, when set, must own the pass.
	MemberID int64
	Now      time.Time
}

// RedeemPass consumes one session of a count pass or validates a period
// pass. It returns ErrPassUnavailable when the pass is missing, owned by
// another member, not active, outside its validity window or out of sessions.
func RedeemPass(ctx context.Context, q dbgen.Querier, params RedeemPassParams) (dbgen.MemberProduct, error) {
	if q == nil {
		return dbgen.MemberProduct{}, fmt.Errorf("queries are required")
	}
	if params.MemberProductID <= 0 {
		return dbgen.MemberProduct{}, fmt.Errorf("member_product_id must be a positive integer")
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	pass, err := q.GetMemberProductByID(ctx, params.MemberProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.MemberProduct{}, ErrPassUnavailable
		}
		return dbgen.MemberProduct{}, err
	}

	if params.MemberID > 0 && pass.MemberID != params.MemberID {
		return dbgen.MemberProduct{}, ErrPassUnavailable
	}
	if !PassUsableAt(pass, now) {
		return dbgen.MemberProduct{}, ErrPassUnavailable
	}

	if pass.Kind != PassKindCount {
		return pass, nil
	}

	updated, err := q.DecrementMemberProductSession(ctx, dbgen.DecrementMemberProductSessionParams{
		ID:  pass.ID,
		Now: now,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.MemberProduct{}, ErrPassUnavailable
		}
		return dbgen.MemberProduct{}, err
	}
	return updated, nil
}

// PassUsableAt reports whether pass is active and inside its validity window
// at t. Count passes also need a remaining session.
func PassUsableAt(pass dbgen.MemberProduct, t time.Time) bool {
	if pass.Status != PassStatusActive {
		return false
	}
	if t.Before(pass.StartsAt) {
		return false
	}
	if pass.ExpiresAt.Valid && !t.Before(pass.ExpiresAt.Time) {
		return false
	}
	if pass.Kind == PassKindCount && (!pass.RemainingSessions.Valid || pass.RemainingSessions.Int64 <= 0) {
		return false
	}
	return true
}
