package bookings

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codr1/Trainyard/internal/db"
	"github.com/codr1/Trainyard/internal/events"
	"github.com/codr1/Trainyard/internal/testutil"
)

func setupBookingsTest(t *testing.T) (*db.DB, *testutil.EventRecorder) {
	t.Helper()

	database := testutil.NewTestDB(t)
	recorder := &testutil.EventRecorder{}

	resetBookingsState()
	InitHandlers(database, recorder)
	t.Cleanup(resetBookingsState)

	return database, recorder
}

func resetBookingsState() {
	database = nil
	publisher = nil
	handlerOnce = sync.Once{}
}

func createBooking(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	HandleBookingCreate(recorder, req)
	return recorder
}

func TestHandleBookingCreate(t *testing.T) {
	seeded, published := setupBookingsTest(t)
	facility := testutil.SeedFacility(t, seeded, "north", 0)
	member := testutil.SeedMember(t, seeded, "Ada", "Lovelace", "U18", "active", time.Now())
	coach := testutil.SeedCoach(t, seeded, facility.ID, "Grace", "Hopper")

	body := fmt.Sprintf(`{"facilityId":%d,"memberId":%d,"coachId":%d,"lessonCategory":"sprints","startTime":"2030-03-01T09:00","endTime":"2030-03-01T10:00"}`,
		facility.ID, member.ID, coach.ID)
	recorder := createBooking(t, body)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	var resp BookingResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "scheduled" {
		t.Fatalf("unexpected status: %s", resp.Status)
	}
	if !resp.StartTime.Equal(time.Date(2030, 3, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start: %v", resp.StartTime)
	}
	if got := published.Types(); len(got) != 1 || got[0] != events.BookingCreated {
		t.Fatalf("unexpected events: %v", got)
	}
}

func TestHandleBookingCreate_Rejections(t *testing.T) {
	seeded, _ := setupBookingsTest(t)
	facility := testutil.SeedFacility(t, seeded, "north", 0)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"missing facility", `{"startTime":"2030-03-01T09:00","endTime":"2030-03-01T10:00"}`, http.StatusBadRequest},
		{"unknown facility", `{"facilityId":999,"startTime":"2030-03-01T09:00","endTime":"2030-03-01T10:00"}`, http.StatusBadRequest},
		{"end before start", fmt.Sprintf(`{"facilityId":%d,"startTime":"2030-03-01T10:00","endTime":"2030-03-01T09:00"}`, facility.ID), http.StatusBadRequest},
		{"bad start", fmt.Sprintf(`{"facilityId":%d,"startTime":"soon","endTime":"2030-03-01T09:00"}`, facility.ID), http.StatusBadRequest},
		{"unknown member", fmt.Sprintf(`{"facilityId":%d,"memberId":999,"startTime":"2030-03-01T09:00","endTime":"2030-03-01T10:00"}`, facility.ID), http.StatusBadRequest},
		{"unknown coach", fmt.Sprintf(`{"facilityId":%d,"coachId":999,"startTime":"2030-03-01T09:00","endTime":"2030-03-01T10:00"}`, facility.ID), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := createBooking(t, tt.body)
			if recorder.Code != tt.status {
				t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
			}
		})
	}
}

func TestHandleBookingCreate_CoachOverlap(t *testing.T) {
	seeded, published := setupBookingsTest(t)
	facility := testutil.SeedFacility(t, seeded, "north", 0)
	coach := testutil.SeedCoach(t, seeded, facility.ID, "Grace", "Hopper")

	first := fmt.Sprintf(`{"facilityId":%d,"coachId":%d,"startTime":"2030-03-01T09:00","endTime":"2030-03-01T10:00"}`, facility.ID, coach.ID)
	if recorder := createBooking(t, first); recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}

	overlap := fmt.Sprintf(`{"facilityId":%d,"coachId":%d,"startTime":"2030-03-01T09:30","endTime":"2030-03-01T10:30"}`, facility.ID, coach.ID)
	if recorder := createBooking(t, overlap); recorder.Code != http.StatusConflict {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}

	adjacent := fmt.Sprintf(`{"facilityId":%d,"coachId":%d,"startTime":"2030-03-01T10:00","endTime":"2030-03-01T11:00"}`, facility.ID, coach.ID)
	if recorder := createBooking(t, adjacent); recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}

	if got := published.Types(); len(got) != 2 {
		t.Fatalf("unexpected events: %v", got)
	}
}

func TestHandleBookingCreate_FacilityCapacity(t *testing.T) {
	seeded, _ := setupBookingsTest(t)
	facility := testutil.SeedFacility(t, seeded, "north", 1)

	body := fmt.Sprintf(`{"facilityId":%d,"startTime":"2030-03-01T09:00","endTime":"2030-03-01T10:00"}`, facility.ID)
	if recorder := createBooking(t, body); recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	if recorder := createBooking(t, body); recorder.Code != http.StatusConflict {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
}

func TestHandleBookingCreate_CapacityUsesPeakOverlap(t *testing.T) {
	seeded, _ := setupBookingsTest(t)
	facility := testutil.SeedFacility(t, seeded, "north", 2)

	slot := func(start, end string) string {
		return fmt.Sprintf(`{"facilityId":%d,"startTime":"2030-03-01T%s","endTime":"2030-03-01T%s"}`, facility.ID, start, end)
	}

	for _, body := range []string{slot("09:00", "10:00"), slot("10:00", "11:00"), slot("09:00", "11:00")} {
		if recorder := createBooking(t, body); recorder.Code != http.StatusCreated {
			t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
		}
	}

	// 09:30-10:30 now meets two bookings at every instant.
	recorder := createBooking(t, slot("09:30", "10:30"))
	if recorder.Code != http.StatusConflict {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	if !strings.Contains(recorder.Body.String(), "capacity (2)") {
		t.Fatalf("unexpected body: %s", recorder.Body.String())
	}
}

func TestHandleBookingList(t *testing.T) {
	seeded, _ := setupBookingsTest(t)
	north := testutil.SeedFacility(t, seeded, "north", 0)
	south := testutil.SeedFacility(t, seeded, "south", 0)
	member := testutil.SeedMember(t, seeded, "Ada", "Lovelace", "", "active", time.Now())

	for _, body := range []string{
		fmt.Sprintf(`{"facilityId":%d,"memberId":%d,"startTime":"2030-03-01T09:00","endTime":"2030-03-01T10:00"}`, north.ID, member.ID),
		fmt.Sprintf(`{"facilityId":%d,"startTime":"2030-03-02T09:00","endTime":"2030-03-02T10:00"}`, north.ID),
		fmt.Sprintf(`{"facilityId":%d,"startTime":"2030-03-01T09:00","endTime":"2030-03-01T10:00"}`, south.ID),
		fmt.Sprintf(`{"facilityId":%d,"startTime":"2030-04-01T09:00","endTime":"2030-04-01T10:00"}`, north.ID),
	} {
		if recorder := createBooking(t, body); recorder.Code != http.StatusCreated {
			t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
		}
	}

	tests := []struct {
		query string
		want  int
	}{
		{fmt.Sprintf("?facility_id=%d&start_date=2030-03-01&end_date=2030-03-31", north.ID), 2},
		{fmt.Sprintf("?member_id=%d&start_date=2030-03-01&end_date=2030-03-31", member.ID), 1},
		{"?start_date=2030-03-01&end_date=2030-03-01", 2},
		{"?start_date=2030-03-01&end_date=2030-04-30", 4},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings"+tt.query, nil)
			recorder := httptest.NewRecorder()

			HandleBookingList(recorder, req)

			if recorder.Code != http.StatusOK {
				t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
			}
			var resp listBookingsResponse
			if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(resp.Bookings) != tt.want {
				t.Fatalf("got %d bookings want %d", len(resp.Bookings), tt.want)
			}
		})
	}
}

func TestHandleBookingList_UnknownFacility(t *testing.T) {
	setupBookingsTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings?facility_id=999", nil)
	recorder := httptest.NewRecorder()

	HandleBookingList(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", recorder.Code)
	}
}

func TestHandleBookingCancel(t *testing.T) {
	seeded, published := setupBookingsTest(t)
	facility := testutil.SeedFacility(t, seeded, "north", 0)

	recorder := createBooking(t, fmt.Sprintf(`{"facilityId":%d,"startTime":"2030-03-01T09:00","endTime":"2030-03-01T10:00"}`, facility.ID))
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	var created BookingResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	cancel := func(id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/bookings/"+id, nil)
		req.SetPathValue("id", id)
		recorder := httptest.NewRecorder()
		HandleBookingCancel(recorder, req)
		return recorder
	}

	id := fmt.Sprintf("%d", created.ID)
	recorder = cancel(id)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	var cancelled BookingResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &cancelled); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cancelled.Status != "cancelled" || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected booking: %+v", cancelled)
	}

	if recorder := cancel(id); recorder.Code != http.StatusConflict {
		t.Fatalf("status: %d", recorder.Code)
	}
	if recorder := cancel("999"); recorder.Code != http.StatusNotFound {
		t.Fatalf("status: %d", recorder.Code)
	}

	got := published.Types()
	if len(got) != 2 || got[1] != events.BookingCancelled {
		t.Fatalf("unexpected events: %v", got)
	}
}

func TestCancelledBookingFreesCapacity(t *testing.T) {
	seeded, _ := setupBookingsTest(t)
	facility := testutil.SeedFacility(t, seeded, "north", 1)
	body := fmt.Sprintf(`{"facilityId":%d,"startTime":"2030-03-01T09:00","endTime":"2030-03-01T10:00"}`, facility.ID)

	recorder := createBooking(t, body)
	var created BookingResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	id := fmt.Sprintf("%d", created.ID)
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/bookings/"+id, nil)
	req.SetPathValue("id", id)
	HandleBookingCancel(httptest.NewRecorder(), req)

	if recorder := createBooking(t, body); recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
}
