package facilities

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/codr1/Trainyard/internal/db"
	"github.com/codr1/Trainyard/internal/testutil"
)

func setupFacilitiesTest(t *testing.T) *db.DB {
	t.Helper()

	database := testutil.NewTestDB(t)

	queries = nil
	queriesOnce = sync.Once{}
	InitHandlers(database.Queries)

	t.Cleanup(func() {
		queries = nil
		queriesOnce = sync.Once{}
	})

	return database
}

func TestHandleFacilityCreate(t *testing.T) {
	setupFacilitiesTest(t)

	body := `{"name":"North Yard","slug":"North-Yard","timezone":"Europe/Berlin","capacity":4}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/facilities", strings.NewReader(body))
	recorder := httptest.NewRecorder()

	HandleFacilityCreate(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	var resp FacilityResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Slug != "north-yard" || resp.Timezone != "Europe/Berlin" || resp.Capacity != 4 || resp.Status != "active" {
		t.Fatalf("unexpected facility: %+v", resp)
	}
}

func TestHandleFacilityCreate_DuplicateSlug(t *testing.T) {
	database := setupFacilitiesTest(t)
	testutil.SeedFacility(t, database, "north", 0)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/facilities", strings.NewReader(`{"name":"Again","slug":"north"}`))
	recorder := httptest.NewRecorder()

	HandleFacilityCreate(recorder, req)

	if recorder.Code != http.StatusConflict {
		t.Fatalf("status: %d", recorder.Code)
	}
}

func TestHandleFacilityCreate_Validation(t *testing.T) {
	setupFacilitiesTest(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"slug":"north"}`},
		{"bad slug", `{"name":"N","slug":"north yard"}`},
		{"bad timezone", `{"name":"N","slug":"north","timezone":"Mars/Olympus"}`},
		{"negative capacity", `{"name":"N","slug":"north","capacity":-1}`},
		{"unknown field", `{"name":"N","slug":"north","color":"red"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/facilities", strings.NewReader(tt.body))
			recorder := httptest.NewRecorder()

			HandleFacilityCreate(recorder, req)

			if recorder.Code != http.StatusBadRequest {
				t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
			}
		})
	}
}

func TestHandleFacilityList(t *testing.T) {
	database := setupFacilitiesTest(t)
	testutil.SeedFacility(t, database, "north", 0)
	testutil.SeedFacility(t, database, "south", 2)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/facilities", nil)
	recorder := httptest.NewRecorder()

	HandleFacilityList(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	var resp listFacilitiesResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Facilities) != 2 {
		t.Fatalf("expected 2 facilities, got %d", len(resp.Facilities))
	}
}
