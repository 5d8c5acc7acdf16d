package checkin

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codr1/Trainyard/internal/cache"
	"github.com/codr1/Trainyard/internal/db"
	dbgen "github.com/codr1/Trainyard/internal/db/generated"
	"github.com/codr1/Trainyard/internal/events"
	"github.com/codr1/Trainyard/internal/ratelimit"
	"github.com/codr1/Trainyard/internal/testutil"
)

type checkinFixture struct {
	db      *db.DB
	events  *testutil.EventRecorder
	cache   *testutil.CacheRecorder
	limiter *ratelimit.Limiter
}

func setupCheckinTest(t *testing.T, cooldown time.Duration) checkinFixture {
	t.Helper()

	fixture := checkinFixture{
		db:      testutil.NewTestDB(t),
		events:  &testutil.EventRecorder{},
		cache:   &testutil.CacheRecorder{},
		limiter: ratelimit.New(&ratelimit.Config{Cooldown: cooldown}),
	}
	t.Cleanup(fixture.limiter.Close)

	resetCheckinState()
	InitHandlers(fixture.db, fixture.limiter, false, fixture.events, fixture.cache)
	t.Cleanup(resetCheckinState)

	return fixture
}

func resetCheckinState() {
	database = nil
	limiter = nil
	trustProxy = false
	publisher = nil
	store = nil
	handlerOnce = sync.Once{}
}

func postCheckin(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkin", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	HandleCheckin(recorder, req)
	return recorder
}

func decodeBlocked(t *testing.T, recorder *httptest.ResponseRecorder) checkinBlockResponse {
	t.Helper()

	var resp checkinBlockResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestHandleCheckin(t *testing.T) {
	fixture := setupCheckinTest(t, 0)
	facility := testutil.SeedFacility(t, fixture.db, "north", 0)
	member := testutil.SeedMember(t, fixture.db, "Ada", "Lovelace", "U18", "active", time.Now())

	recorder := postCheckin(t, fmt.Sprintf(`{"memberId":%d,"facilityId":%d}`, member.ID, facility.ID))

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	var resp checkinResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "checked_in" || resp.Attendance.MemberName != "Ada Lovelace" || resp.Override {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if got := fixture.events.Types(); len(got) != 1 || got[0] != events.AttendanceCheckedIn {
		t.Fatalf("unexpected events: %v", got)
	}
	if got := fixture.cache.Dropped(); len(got) != 1 || got[0] != cache.ScopeReports {
		t.Fatalf("unexpected invalidations: %v", got)
	}
}

func TestHandleCheckin_InactiveMember(t *testing.T) {
	fixture := setupCheckinTest(t, 0)
	facility := testutil.SeedFacility(t, fixture.db, "north", 0)
	member := testutil.SeedMember(t, fixture.db, "Ada", "Lovelace", "", "suspended", time.Now())

	recorder := postCheckin(t, fmt.Sprintf(`{"memberId":%d,"facilityId":%d}`, member.ID, facility.ID))
	if recorder.Code != http.StatusConflict {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	blocked := decodeBlocked(t, recorder)
	if blocked.Status != "blocked" || blocked.Reason != "membership_inactive" || blocked.MemberStatus != "suspended" {
		t.Fatalf("unexpected block: %+v", blocked)
	}

	recorder = postCheckin(t, fmt.Sprintf(`{"memberId":%d,"facilityId":%d,"override":true}`, member.ID, facility.ID))
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	var resp checkinResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Override {
		t.Fatalf("expected override to be reported")
	}
}

func TestHandleCheckin_Lookups(t *testing.T) {
	fixture := setupCheckinTest(t, 0)
	facility := testutil.SeedFacility(t, fixture.db, "north", 0)
	member := testutil.SeedMember(t, fixture.db, "Ada", "Lovelace", "", "active", time.Now())

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"missing member id", fmt.Sprintf(`{"facilityId":%d}`, facility.ID), http.StatusBadRequest},
		{"unknown member", fmt.Sprintf(`{"memberId":999,"facilityId":%d}`, facility.ID), http.StatusNotFound},
		{"unknown facility", fmt.Sprintf(`{"memberId":%d,"facilityId":999}`, member.ID), http.StatusBadRequest},
		{"unknown booking", fmt.Sprintf(`{"memberId":%d,"facilityId":%d,"bookingId":999}`, member.ID, facility.ID), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := postCheckin(t, tt.body)
			if recorder.Code != tt.status {
				t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
			}
		})
	}
}

func TestHandleCheckin_BookingMustBelongToMember(t *testing.T) {
	fixture := setupCheckinTest(t, 0)
	facility := testutil.SeedFacility(t, fixture.db, "north", 0)
	ada := testutil.SeedMember(t, fixture.db, "Ada", "Lovelace", "", "active", time.Now())
	alan := testutil.SeedMember(t, fixture.db, "Alan", "Turing", "", "active", time.Now())

	start := time.Now().UTC().Truncate(time.Hour)
	booking, err := fixture.db.Queries.CreateBooking(context.Background(), dbgen.CreateBookingParams{
		FacilityID: facility.ID,
		MemberID:   sql.NullInt64{Int64: ada.ID, Valid: true},
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	recorder := postCheckin(t, fmt.Sprintf(`{"memberId":%d,"facilityId":%d,"bookingId":%d}`, alan.ID, facility.ID, booking.ID))
	if recorder.Code != http.StatusConflict {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	if blocked := decodeBlocked(t, recorder); blocked.Reason != "booking_mismatch" {
		t.Fatalf("unexpected block: %+v", blocked)
	}

	recorder = postCheckin(t, fmt.Sprintf(`{"memberId":%d,"facilityId":%d,"bookingId":%d}`, ada.ID, facility.ID, booking.ID))
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
}

func TestHandleCheckin_RedeemsPass(t *testing.T) {
	fixture := setupCheckinTest(t, 0)
	facility := testutil.SeedFacility(t, fixture.db, "north", 0)
	member := testutil.SeedMember(t, fixture.db, "Ada", "Lovelace", "", "active", time.Now())
	product := testutil.SeedProduct(t, fixture.db, "1 Session", "count_pass", 1000, sql.NullInt64{Int64: 1, Valid: true}, sql.NullInt64{})

	pass, err := fixture.db.Queries.CreateMemberProduct(context.Background(), dbgen.CreateMemberProductParams{
		MemberID:          member.ID,
		ProductID:         product.ID,
		Kind:              "count",
		TotalSessions:     sql.NullInt64{Int64: 1, Valid: true},
		RemainingSessions: sql.NullInt64{Int64: 1, Valid: true},
		StartsAt:          time.Now().UTC().Add(-time.Hour),
		PurchasedAt:       time.Now().UTC().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("create pass: %v", err)
	}

	body := fmt.Sprintf(`{"memberId":%d,"facilityId":%d,"memberProductId":%d}`, member.ID, facility.ID, pass.ID)
	if recorder := postCheckin(t, body); recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}

	recorder := postCheckin(t, body)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	if blocked := decodeBlocked(t, recorder); blocked.Reason != "pass_unavailable" {
		t.Fatalf("unexpected block: %+v", blocked)
	}

	rows, err := fixture.db.Queries.ListAttendance(context.Background(), dbgen.ListAttendanceParams{
		MemberID:  sql.NullInt64{Int64: member.ID, Valid: true},
		StartTime: time.Now().UTC().Add(-time.Hour),
		EndTime:   time.Now().UTC().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("list attendance: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected the failed redemption to roll back, got %d rows", len(rows))
	}
}

func TestHandleCheckin_Cooldown(t *testing.T) {
	fixture := setupCheckinTest(t, 10*time.Minute)
	facility := testutil.SeedFacility(t, fixture.db, "north", 0)
	other := testutil.SeedFacility(t, fixture.db, "south", 0)
	member := testutil.SeedMember(t, fixture.db, "Ada", "Lovelace", "", "active", time.Now())

	body := fmt.Sprintf(`{"memberId":%d,"facilityId":%d}`, member.ID, facility.ID)
	if recorder := postCheckin(t, body); recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}

	recorder := postCheckin(t, body)
	if recorder.Code != http.StatusTooManyRequests {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	if recorder.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	var limited rateLimitedResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &limited); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if limited.Reason != "cooldown" || limited.RetryAfterSeconds <= 0 || limited.RetryAfterSeconds > 600 {
		t.Fatalf("unexpected rate limit: %+v", limited)
	}

	if recorder := postCheckin(t, fmt.Sprintf(`{"memberId":%d,"facilityId":%d}`, member.ID, other.ID)); recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
}

func TestHandleCheckin_FailedCheckinDoesNotStartCooldown(t *testing.T) {
	fixture := setupCheckinTest(t, 10*time.Minute)
	facility := testutil.SeedFacility(t, fixture.db, "north", 0)
	ada := testutil.SeedMember(t, fixture.db, "Ada", "Lovelace", "", "active", time.Now())
	alan := testutil.SeedMember(t, fixture.db, "Alan", "Turing", "", "active", time.Now())

	start := time.Now().UTC().Truncate(time.Hour)
	booking, err := fixture.db.Queries.CreateBooking(context.Background(), dbgen.CreateBookingParams{
		FacilityID: facility.ID,
		MemberID:   sql.NullInt64{Int64: alan.ID, Valid: true},
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	recorder := postCheckin(t, fmt.Sprintf(`{"memberId":%d,"facilityId":%d,"bookingId":%d}`, ada.ID, facility.ID, booking.ID))
	if recorder.Code != http.StatusConflict {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}

	recorder = postCheckin(t, fmt.Sprintf(`{"memberId":%d,"facilityId":%d}`, ada.ID, facility.ID))
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
}

func TestHandleCheckin_ConcurrentRepeatsCreateOneAttendance(t *testing.T) {
	fixture := setupCheckinTest(t, 10*time.Minute)
	facility := testutil.SeedFacility(t, fixture.db, "north", 0)
	member := testutil.SeedMember(t, fixture.db, "Ada", "Lovelace", "", "active", time.Now())
	body := fmt.Sprintf(`{"memberId":%d,"facilityId":%d}`, member.ID, facility.ID)

	const attempts = 8
	codes := make([]int, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/checkin", strings.NewReader(body))
			recorder := httptest.NewRecorder()
			HandleCheckin(recorder, req)
			codes[i] = recorder.Code
		}()
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusTooManyRequests:
		default:
			t.Fatalf("unexpected status %d in %v", code, codes)
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one check-in, got %d (%v)", created, codes)
	}
}

func TestHandleAttendanceListAndCheckout(t *testing.T) {
	fixture := setupCheckinTest(t, 0)
	facility := testutil.SeedFacility(t, fixture.db, "north", 0)
	member := testutil.SeedMember(t, fixture.db, "Ada", "Lovelace", "", "active", time.Now())

	recorder := postCheckin(t, fmt.Sprintf(`{"memberId":%d,"facilityId":%d}`, member.ID, facility.ID))
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/attendance?facility_id=%d&date_range=today", facility.ID), nil)
	recorder = httptest.NewRecorder()
	HandleAttendanceList(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	var list listAttendanceResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Attendance) != 1 || list.Attendance[0].MemberName != "Ada Lovelace" {
		t.Fatalf("unexpected attendance: %+v", list.Attendance)
	}

	checkout := func(id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/"+id+"/checkout", nil)
		req.SetPathValue("id", id)
		recorder := httptest.NewRecorder()
		HandleCheckout(recorder, req)
		return recorder
	}

	id := fmt.Sprintf("%d", list.Attendance[0].ID)
	recorder = checkout(id)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	var resp AttendanceResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.CheckedOutAt == nil {
		t.Fatalf("expected checkedOutAt")
	}
	if recorder := checkout(id); recorder.Code != http.StatusConflict {
		t.Fatalf("status: %d", recorder.Code)
	}
	if recorder := checkout("999"); recorder.Code != http.StatusNotFound {
		t.Fatalf("status: %d", recorder.Code)
	}
}
