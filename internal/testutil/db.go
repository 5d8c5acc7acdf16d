package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/codr1/Trainyard/internal/db"
	dbgen "github.com/codr1/Trainyard/internal/db/generated"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// SeedFacility inserts an active UTC facility with the given capacity.
func SeedFacility(t *testing.T, database *db.DB, slug string, capacity int64) dbgen.Facility {
	t.Helper()

	facility, err := database.Queries.CreateFacility(context.Background(), dbgen.CreateFacilityParams{
		Name:     "Facility " + slug,
		Slug:     slug,
		Timezone: "UTC",
		Capacity: capacity,
		Status:   "active",
	})
	if err != nil {
		t.Fatalf("seed facility: %v", err)
	}
	return facility
}

// SeedMember inserts a member with the given status and grade, joined at joinedAt.
func SeedMember(t *testing.T, database *db.DB, firstName, lastName, grade, status string, joinedAt time.Time) dbgen.Member {
	t.Helper()

	member, err := database.Queries.CreateMember(context.Background(), dbgen.CreateMemberParams{
		FirstName: firstName,
		LastName:  lastName,
		Grade:     grade,
		Status:    status,
		JoinedAt:  joinedAt.UTC(),
	})
	if err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return member
}

// SeedCoach inserts an active coach attached to facilityID.
func SeedCoach(t *testing.T, database *db.DB, facilityID int64, firstName, lastName string) dbgen.Coach {
	t.Helper()

	coach, err := database.Queries.CreateCoach(context.Background(), dbgen.CreateCoachParams{
		FacilityID: sql.NullInt64{Int64: facilityID, Valid: facilityID > 0},
		FirstName:  firstName,
		LastName:   lastName,
		Status:     "active",
	})
	if err != nil {
		t.Fatalf("seed coach: %v", err)
	}
	return coach
}

// SeedProduct inserts an active product.
func SeedProduct(t *testing.T, database *db.DB, name, category string, priceCents int64, sessionCount, validDays sql.NullInt64) dbgen.Product {
	t.Helper()

	product, err := database.Queries.CreateProduct(context.Background(), dbgen.CreateProductParams{
		Name:         name,
		Category:     category,
		PriceCents:   priceCents,
		SessionCount: sessionCount,
		ValidDays:    validDays,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

// SeedMemberWithEmail inserts an active member reachable at address.
func SeedMemberWithEmail(t *testing.T, database *db.DB, firstName, lastName, address string) dbgen.Member {
	t.Helper()

	member, err := database.Queries.CreateMember(context.Background(), dbgen.CreateMemberParams{
		FirstName: firstName,
		LastName:  lastName,
		Email:     sql.NullString{String: address, Valid: true},
		Status:    "active",
		JoinedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return member
}
