package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/codr1/Trainyard/internal/db"
	dbgen "github.com/codr1/Trainyard/internal/db/generated"
	"github.com/codr1/Trainyard/internal/testutil"
)

type recordedEmail struct {
	recipient string
	subject   string
	body      string
}

type fakeEmailSender struct {
	mu   sync.Mutex
	sent []recordedEmail
	wg   sync.WaitGroup
}

func (f *fakeEmailSender) Send(ctx context.Context, recipient, subject, body string) error {
	return f.SendFrom(ctx, recipient, subject, body, "")
}

func (f *fakeEmailSender) SendFrom(_ context.Context, recipient, subject, body, _ string) error {
	defer f.wg.Done()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, recordedEmail{recipient: recipient, subject: subject, body: body})
	return nil
}

func (f *fakeEmailSender) waitFor(t *testing.T) []recordedEmail {
	t.Helper()

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for emails")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedEmail(nil), f.sent...)
}

func createMemberWithEmail(t *testing.T, database *db.DB, firstName, address string) dbgen.Member {
	t.Helper()

	member, err := database.Queries.CreateMember(context.Background(), dbgen.CreateMemberParams{
		FirstName: firstName,
		LastName:  "Tester",
		Email:     sql.NullString{String: address, Valid: address != ""},
		Status:    "active",
		JoinedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	return member
}

func createBooking(t *testing.T, database *db.DB, facilityID, memberID, coachID int64, start time.Time) dbgen.Booking {
	t.Helper()

	booking, err := database.Queries.CreateBooking(context.Background(), dbgen.CreateBookingParams{
		FacilityID:     facilityID,
		MemberID:       sql.NullInt64{Int64: memberID, Valid: memberID > 0},
		CoachID:        sql.NullInt64{Int64: coachID, Valid: coachID > 0},
		LessonCategory: sql.NullString{String: "sprint clinic", Valid: true},
		StartTime:      start.UTC(),
		EndTime:        start.Add(time.Hour).UTC(),
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return booking
}

func TestSendBookingReminders_SendsOnlyInsideWindow(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	facility := testutil.SeedFacility(t, database, "north", 0)
	coach := testutil.SeedCoach(t, database, facility.ID, "Grace", "Hopper")
	inWindow := createMemberWithEmail(t, database, "Ada", "ada@test.com")
	tooLate := createMemberWithEmail(t, database, "Bea", "bea@test.com")
	noEmail := createMemberWithEmail(t, database, "Cal", "")
	cancelled := createMemberWithEmail(t, database, "Dee", "dee@test.com")

	createBooking(t, database, facility.ID, inWindow.ID, coach.ID, now.Add(24*time.Hour+5*time.Minute))
	createBooking(t, database, facility.ID, tooLate.ID, 0, now.Add(25*time.Hour))
	createBooking(t, database, facility.ID, noEmail.ID, 0, now.Add(24*time.Hour+10*time.Minute))
	dropped := createBooking(t, database, facility.ID, cancelled.ID, 0, now.Add(24*time.Hour))
	if _, err := database.Queries.CancelBooking(ctx, dbgen.CancelBookingParams{
		ID:          dropped.ID,
		CancelledAt: sql.NullTime{Time: now, Valid: true},
	}); err != nil {
		t.Fatalf("cancel booking: %v", err)
	}

	sender := &fakeEmailSender{}
	sender.wg.Add(1)
	sent, err := SendBookingReminders(ctx, database, sender, now, 24)
	if err != nil {
		t.Fatalf("send reminders: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected 1 reminder, got %d", sent)
	}

	emails := sender.waitFor(t)
	if len(emails) != 1 {
		t.Fatalf("expected 1 email, got %d", len(emails))
	}
	if emails[0].recipient != "ada@test.com" {
		t.Fatalf("expected ada@test.com, got %q", emails[0].recipient)
	}
	if !strings.Contains(emails[0].subject, "sprint clinic") {
		t.Fatalf("expected lesson category in subject, got %q", emails[0].subject)
	}
	if !strings.Contains(emails[0].body, "Coach: Grace Hopper") {
		t.Fatalf("expected coach in body, got:\n%s", emails[0].body)
	}
}

func TestSendBookingReminders_NilSenderIsNoop(t *testing.T) {
	database := testutil.NewTestDB(t)

	sent, err := SendBookingReminders(context.Background(), database, nil, time.Now(), 24)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sent != 0 {
		t.Fatalf("expected 0 reminders, got %d", sent)
	}
}

func TestExpirePasses(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	member := testutil.SeedMember(t, database, "Ada", "Lovelace", "", "active", now.AddDate(-1, 0, 0))
	product := testutil.SeedProduct(t, database, "Monthly", "period_pass", 5000, sql.NullInt64{}, sql.NullInt64{Int64: 30, Valid: true})

	create := func(expiresAt time.Time) dbgen.MemberProduct {
		pass, err := database.Queries.CreateMemberProduct(ctx, dbgen.CreateMemberProductParams{
			MemberID:    member.ID,
			ProductID:   product.ID,
			Kind:        "period",
			StartsAt:    expiresAt.AddDate(0, 0, -30).UTC(),
			ExpiresAt:   sql.NullTime{Time: expiresAt.UTC(), Valid: true},
			PurchasedAt: expiresAt.AddDate(0, 0, -30).UTC(),
		})
		if err != nil {
			t.Fatalf("create member product: %v", err)
		}
		return pass
	}
	past := create(now.Add(-time.Hour))
	future := create(now.Add(time.Hour))

	expired, err := ExpirePasses(ctx, database, now)
	if err != nil {
		t.Fatalf("expire passes: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired pass, got %d", expired)
	}

	got, err := database.Queries.GetMemberProductByID(ctx, past.ID)
	if err != nil {
		t.Fatalf("get pass: %v", err)
	}
	if got.Status != "expired" {
		t.Fatalf("expected expired, got %q", got.Status)
	}
	got, err = database.Queries.GetMemberProductByID(ctx, future.ID)
	if err != nil {
		t.Fatalf("get pass: %v", err)
	}
	if got.Status != "active" {
		t.Fatalf("expected active, got %q", got.Status)
	}

	again, err := ExpirePasses(ctx, database, now)
	if err != nil {
		t.Fatalf("expire passes again: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected second run to change nothing, got %d", again)
	}
}

func TestCompleteBookings(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	facility := testutil.SeedFacility(t, database, "north", 0)
	ended := createBooking(t, database, facility.ID, 0, 0, now.Add(-2*time.Hour))
	running := createBooking(t, database, facility.ID, 0, 0, now.Add(-30*time.Minute))

	completed, err := CompleteBookings(ctx, database, now)
	if err != nil {
		t.Fatalf("complete bookings: %v", err)
	}
	if completed != 1 {
		t.Fatalf("expected 1 completed booking, got %d", completed)
	}

	got, err := database.Queries.GetBookingByID(ctx, ended.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.Status != "completed" {
		t.Fatalf("expected completed, got %q", got.Status)
	}
	got, err = database.Queries.GetBookingByID(ctx, running.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.Status != "scheduled" {
		t.Fatalf("expected scheduled, got %q", got.Status)
	}
}

func TestMaintenanceRequiresDatabase(t *testing.T) {
	if _, err := ExpirePasses(context.Background(), nil, time.Now()); err == nil {
		t.Fatal("expected error without database")
	}
	if _, err := CompleteBookings(context.Background(), nil, time.Now()); err == nil {
		t.Fatal("expected error without database")
	}
}

func TestService_RegisterValidation(t *testing.T) {
	svc, err := NewService()
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.Start()
	t.Cleanup(func() { _ = svc.Stop() })

	noop := func(context.Context) error { return nil }
	tests := []struct {
		name string
		job  Job
		want error
	}{
		{"blank name", Job{Name: " ", Cron: "* * * * *", Run: noop}, ErrEmptyJobName},
		{"blank cron", Job{Name: "job", Run: noop}, ErrEmptyCronExpr},
		{"nil run", Job{Name: "job", Cron: "* * * * *"}, ErrNilJobFunc},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(tt.job); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if _, err := svc.Register(Job{Name: "job", Cron: "not a cron", Run: noop}); err == nil {
		t.Fatal("expected invalid cron error")
	}

	job, err := svc.Register(Job{Name: "job", Cron: "*/5 * * * *", Run: noop})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if job.Name() != "job" {
		t.Fatalf("expected job name 'job', got %q", job.Name())
	}
	if len(svc.Jobs()) != 1 {
		t.Fatalf("expected 1 job, got %d", len(svc.Jobs()))
	}
}

func TestService_RegisterRunsWithDeadline(t *testing.T) {
	svc, err := NewService()
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop() })

	ran := make(chan time.Duration, 1)
	_, err = svc.Register(Job{
		Name:    "probe",
		Cron:    "0 0 1 1 *",
		Timeout: 30 * time.Second,
		Run: func(ctx context.Context) error {
			deadline, ok := ctx.Deadline()
			if !ok {
				ran <- 0
				return nil
			}
			ran <- time.Until(deadline)
			return nil
		},
	}, gocron.WithStartAt(gocron.WithStartImmediately()))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	svc.Start()

	select {
	case remaining := <-ran:
		if remaining <= 0 || remaining > 30*time.Second {
			t.Fatalf("unexpected deadline: %v", remaining)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestPackageRegisterRequiresInit(t *testing.T) {
	if service != nil {
		t.Skip("scheduler already initialized")
	}
	if _, err := Register(Job{Name: "job", Cron: "* * * * *", Run: func(context.Context) error { return nil }}); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestService_StopIsIdempotent(t *testing.T) {
	svc, err := NewService()
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.Start()

	if err := svc.Stop(); err != nil {
		t.Fatalf("first stop: %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}

	var nilSvc *Service
	if err := nilSvc.Stop(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}
