package models

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/codr1/Trainyard/internal/testutil"
)

var purchaseTime = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

func TestPurchasePassCountProduct(t *testing.T) {
	database := testutil.NewTestDB(t)
	member := testutil.SeedMember(t, database, "Ana", "Lopez", "U12", "active", purchaseTime)
	product := testutil.SeedProduct(t, database, "10-Pack", ProductCategoryCountPass, 9000,
		sql.NullInt64{Int64: 10, Valid: true}, sql.NullInt64{Int64: 60, Valid: true})

	result, err := PurchasePass(context.Background(), database.Queries, PurchasePassParams{
		MemberID:    member.ID,
		ProductID:   product.ID,
		Method:      "card",
		PurchasedAt: purchaseTime,
	})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	pass := result.MemberProduct
	if pass.Kind != PassKindCount || pass.RemainingSessions.Int64 != 10 || pass.TotalSessions.Int64 != 10 {
		t.Fatalf("unexpected pass: %+v", pass)
	}
	if !pass.ExpiresAt.Valid || !pass.ExpiresAt.Time.Equal(purchaseTime.AddDate(0, 0, 60)) {
		t.Fatalf("expires at: %+v", pass.ExpiresAt)
	}
	if result.Payment == nil || result.Payment.AmountCents != 9000 || result.Payment.MemberProductID.Int64 != pass.ID {
		t.Fatalf("payment: %+v", result.Payment)
	}
	if result.Payment.Status != "paid" {
		t.Fatalf("payment status: %s", result.Payment.Status)
	}
}

func TestPurchasePassPeriodProductWithCustomAmount(t *testing.T) {
	database := testutil.NewTestDB(t)
	member := testutil.SeedMember(t, database, "Ben", "Kim", "", "active", purchaseTime)
	product := testutil.SeedProduct(t, database, "Monthly", ProductCategoryPeriodPass, 12000,
		sql.NullInt64{}, sql.NullInt64{Int64: 30, Valid: true})

	start := purchaseTime.AddDate(0, 0, 2)
	result, err := PurchasePass(context.Background(), database.Queries, PurchasePassParams{
		MemberID:    member.ID,
		ProductID:   product.ID,
		Method:      "cash",
		AmountCents: 10000,
		StartsAt:    start,
		PurchasedAt: purchaseTime,
	})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if result.MemberProduct.Kind != PassKindPeriod || result.MemberProduct.RemainingSessions.Valid {
		t.Fatalf("unexpected pass: %+v", result.MemberProduct)
	}
	if !result.MemberProduct.StartsAt.Equal(start) || !result.MemberProduct.ExpiresAt.Time.Equal(start.AddDate(0, 0, 30)) {
		t.Fatalf("window: %v - %v", result.MemberProduct.StartsAt, result.MemberProduct.ExpiresAt.Time)
	}
	if result.Payment.AmountCents != 10000 {
		t.Fatalf("amount: %d", result.Payment.AmountCents)
	}
}

func TestPurchasePassRejectsNonPassProducts(t *testing.T) {
	database := testutil.NewTestDB(t)
	member := testutil.SeedMember(t, database, "Cara", "Diaz", "", "active", purchaseTime)
	shirt := testutil.SeedProduct(t, database, "Shirt", "merchandise", 2500, sql.NullInt64{}, sql.NullInt64{})

	_, err := PurchasePass(context.Background(), database.Queries, PurchasePassParams{
		MemberID:  member.ID,
		ProductID: shirt.ID,
		Method:    "card",
	})
	if !errors.Is(err, ErrProductNotSellable) {
		t.Fatalf("expected ErrProductNotSellable, got %v", err)
	}

	inactive := testutil.SeedProduct(t, database, "Old Pack", ProductCategoryCountPass, 1000, sql.NullInt64{Int64: 5, Valid: true}, sql.NullInt64{})
	if _, err := database.Queries.DeactivateProduct(context.Background(), inactive.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err = PurchasePass(context.Background(), database.Queries, PurchasePassParams{
		MemberID:  member.ID,
		ProductID: inactive.ID,
		Method:    "card",
	})
	if !errors.Is(err, ErrProductNotSellable) {
		t.Fatalf("expected ErrProductNotSellable for inactive product, got %v", err)
	}

	_, err = PurchasePass(context.Background(), database.Queries, PurchasePassParams{
		MemberID:  member.ID,
		ProductID: 9999,
		Method:    "card",
	})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows for missing product, got %v", err)
	}
}

func TestRedeemPassCountStopsAtZero(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	member := testutil.SeedMember(t, database, "Dan", "Ross", "", "active", purchaseTime)
	product := testutil.SeedProduct(t, database, "2-Pack", ProductCategoryCountPass, 2000, sql.NullInt64{Int64: 2, Valid: true}, sql.NullInt64{})

	purchase, err := PurchasePass(ctx, database.Queries, PurchasePassParams{
		MemberID:    member.ID,
		ProductID:   product.ID,
		Method:      "card",
		PurchasedAt: purchaseTime,
	})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	now := purchaseTime.Add(time.Hour)
	params := RedeemPassParams{MemberProductID: purchase.MemberProduct.ID, MemberID: member.ID, Now: now}

	first, err := RedeemPass(ctx, database.Queries, params)
	if err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if first.RemainingSessions.Int64 != 1 || first.Status != PassStatusActive {
		t.Fatalf("after first redeem: %+v", first)
	}

	second, err := RedeemPass(ctx, database.Queries, params)
	if err != nil {
		t.Fatalf("second redeem: %v", err)
	}
	if second.RemainingSessions.Int64 != 0 || second.Status != PassStatusExhausted {
		t.Fatalf("after second redeem: %+v", second)
	}

	if _, err := RedeemPass(ctx, database.Queries, params); !errors.Is(err, ErrPassUnavailable) {
		t.Fatalf("third redeem: expected ErrPassUnavailable, got %v", err)
	}

	stored, err := database.Queries.GetMemberProductByID(ctx, purchase.MemberProduct.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.RemainingSessions.Int64 != 0 {
		t.Fatalf("remaining sessions went below zero: %d", stored.RemainingSessions.Int64)
	}
}

func TestRedeemPassPeriodWindow(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	member := testutil.SeedMember(t, database, "Eve", "Moss", "", "active", purchaseTime)
	other := testutil.SeedMember(t, database, "Fay", "Hill", "", "active", purchaseTime)
	product := testutil.SeedProduct(t, database, "Weekly", ProductCategoryPeriodPass, 3000, sql.NullInt64{}, sql.NullInt64{Int64: 7, Valid: true})

	start := purchaseTime.AddDate(0, 0, 1)
	purchase, err := PurchasePass(ctx, database.Queries, PurchasePassParams{
		MemberID:    member.ID,
		ProductID:   product.ID,
		Method:      "transfer",
		StartsAt:    start,
		PurchasedAt: purchaseTime,
	})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	passID := purchase.MemberProduct.ID

	tests := []struct {
		name    string
		member  int64
		now     time.Time
		wantErr bool
	}{
		{name: "before start", member: member.ID, now: start.Add(-time.Minute), wantErr: true},
		{name: "inside window", member: member.ID, now: start.Add(48 * time.Hour), wantErr: false},
		{name: "at expiry", member: member.ID, now: start.AddDate(0, 0, 7), wantErr: true},
		{name: "other member", member: other.ID, now: start.Add(time.Hour), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RedeemPass(ctx, database.Queries, RedeemPassParams{MemberProductID: passID, MemberID: tt.member, Now: tt.now})
			if tt.wantErr && !errors.Is(err, ErrPassUnavailable) {
				t.Fatalf("expected ErrPassUnavailable, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRedeemPassMissing(t *testing.T) {
	database := testutil.NewTestDB(t)
	if _, err := RedeemPass(context.Background(), database.Queries, RedeemPassParams{MemberProductID: 42}); !errors.Is(err, ErrPassUnavailable) {
		t.Fatalf("expected ErrPassUnavailable, got %v", err)
	}
}
