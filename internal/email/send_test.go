package email

import (
	"context"
	"database/sql"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	dbgen "github.com/codr1/Trainyard/internal/db/generated"
	"github.com/codr1/Trainyard/internal/testutil"
)

type sentEmail struct {
	recipient string
	subject   string
	sender    string
	ctxErr    error
}

type fakeEmailSender struct {
	calls   int32
	started chan struct{}
	done    chan sentEmail
	hold    time.Duration
}

func newFakeEmailSender(hold time.Duration) *fakeEmailSender {
	return &fakeEmailSender{
		started: make(chan struct{}, 1),
		done:    make(chan sentEmail, 1),
		hold:    hold,
	}
}

func (f *fakeEmailSender) Send(ctx context.Context, recipient, subject, body string) error {
	return f.SendFrom(ctx, recipient, subject, body, "")
}

func (f *fakeEmailSender) SendFrom(ctx context.Context, recipient, subject, body, sender string) error {
	atomic.AddInt32(&f.calls, 1)
	select {
	case f.started <- struct{}{}:
	default:
	}
	time.Sleep(f.hold)
	sent := sentEmail{recipient: recipient, subject: subject, sender: sender, ctxErr: ctx.Err()}
	select {
	case f.done <- sent:
	default:
	}
	return sent.ctxErr
}

func waitForSignal(t *testing.T, ch <-chan struct{}, message string) {
	t.Helper()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal(message)
	}
}

func waitForSend(t *testing.T, ch <-chan sentEmail) sentEmail {
	t.Helper()

	select {
	case sent := <-ch:
		return sent
	case <-time.After(time.Second):
		t.Fatal("expected email send to finish")
		return sentEmail{}
	}
}

func TestSendMemberEmail_OutlivesCallerContext(t *testing.T) {
	database := testutil.NewTestDB(t)
	member, err := database.Queries.CreateMember(context.Background(), dbgen.CreateMemberParams{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     sql.NullString{String: "ada@test.com", Valid: true},
		Status:    "active",
		JoinedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	sender := newFakeEmailSender(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	SendMemberEmail(ctx, database.Queries, sender, member.ID, Message{Subject: "Subject", Body: "Body"}, nil)

	waitForSignal(t, sender.started, "expected member email send to start")
	cancel()

	sent := waitForSend(t, sender.done)
	if sent.ctxErr != nil {
		t.Fatalf("expected detached context, got %v", sent.ctxErr)
	}
	if sent.recipient != "ada@test.com" {
		t.Fatalf("expected recipient ada@test.com, got %q", sent.recipient)
	}
	if atomic.LoadInt32(&sender.calls) != 1 {
		t.Fatalf("expected one send call, got %d", atomic.LoadInt32(&sender.calls))
	}
}

func TestSendMemberEmail_SkipsMemberWithoutEmail(t *testing.T) {
	database := testutil.NewTestDB(t)
	member := testutil.SeedMember(t, database, "No", "Email", "", "active", time.Now())
	sender := newFakeEmailSender(0)

	SendMemberEmail(context.Background(), database.Queries, sender, member.ID, Message{Subject: "Subject", Body: "Body"}, nil)
	SendMemberEmail(context.Background(), database.Queries, sender, 0, Message{Subject: "Subject", Body: "Body"}, nil)

	if atomic.LoadInt32(&sender.calls) != 0 {
		t.Fatalf("expected no send calls, got %d", atomic.LoadInt32(&sender.calls))
	}
}

func TestDeliver_UsesSenderOverride(t *testing.T) {
	sender := newFakeEmailSender(0)

	Deliver(context.Background(), sender, "  coach@test.com ", Message{Subject: "S", Body: "B"}, "reminders@test.com", nil)

	sent := waitForSend(t, sender.done)
	if sent.recipient != "coach@test.com" {
		t.Fatalf("expected trimmed recipient, got %q", sent.recipient)
	}
	if sent.sender != "reminders@test.com" {
		t.Fatalf("expected sender override, got %q", sent.sender)
	}
}

func TestDeliver_IgnoresEmptyInput(t *testing.T) {
	sender := newFakeEmailSender(0)

	Deliver(context.Background(), nil, "a@test.com", Message{Subject: "S", Body: "B"}, "", nil)
	Deliver(context.Background(), sender, "", Message{Subject: "S", Body: "B"}, "", nil)
	Deliver(context.Background(), sender, "a@test.com", Message{}, "", nil)

	if atomic.LoadInt32(&sender.calls) != 0 {
		t.Fatalf("expected no send calls, got %d", atomic.LoadInt32(&sender.calls))
	}
}

func TestBuildReceiptEmail(t *testing.T) {
	msg := BuildReceiptEmail(ReceiptDetails{
		MemberName:  "Ada Lovelace",
		Description: "10 Session Pass",
		AmountCents: 12050,
		Method:      "card",
		PaidAt:      time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC),
		PaymentID:   42,
	})

	if msg.Subject != "Payment receipt #42" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	for _, want := range []string{"Hello Ada Lovelace,", "Item: 10 Session Pass", "Amount: $120.50", "Method: Card", "Mar 5, 2024 14:30 UTC"} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("expected body to contain %q, got:\n%s", want, msg.Body)
		}
	}
}

func TestBuildRefundEmail(t *testing.T) {
	msg := BuildRefundEmail(RefundDetails{
		PaymentID:          7,
		AmountCents:        500,
		TotalRefundedCents: 1500,
		PaymentAmountCents: 2000,
		Reason:             "Injury",
		RefundedAt:         time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
	})

	if msg.Subject != "Refund issued for receipt #7" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	for _, want := range []string{"Hello,", "A refund of $5.00", "Refunded to date: $15.00", "Reason: Injury"} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("expected body to contain %q, got:\n%s", want, msg.Body)
		}
	}
}

func TestBuildBookingReminderEmail_Defaults(t *testing.T) {
	msg := BuildBookingReminderEmail(BookingReminderDetails{})

	if msg.Subject != "Upcoming session Reminder - your facility" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Date: TBD") || strings.Contains(msg.Body, "Coach:") {
		t.Fatalf("unexpected body:\n%s", msg.Body)
	}

	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	date, timeRange := FormatDateTimeRange(start, start.Add(time.Hour))
	msg = BuildBookingReminderEmail(BookingReminderDetails{
		FacilityName:   "North Yard",
		LessonCategory: "sprint",
		CoachName:      "Grace Hopper",
		Date:           date,
		TimeRange:      timeRange,
	})
	for _, want := range []string{"Date: Tuesday, Mar 5, 2024", "Time: 9:00 AM - 10:00 AM UTC", "Coach: Grace Hopper"} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("expected body to contain %q, got:\n%s", want, msg.Body)
		}
	}
}
