package email

import (
	"fmt"
	"strings"
	"time"
)

// Message is a rendered plain-text email.
type Message struct {
	Subject string
	Body    string
}

type ReceiptDetails struct {
	MemberName  string
	Description string
	AmountCents int64
	Method      string
	PaidAt      time.Time
	PaymentID   int64
}

type RefundDetails struct {
	MemberName         string
	PaymentID          int64
	AmountCents        int64
	TotalRefundedCents int64
	PaymentAmountCents int64
	Reason             string
	RefundedAt         time.Time
}

type BookingReminderDetails struct {
	FacilityName   string
	MemberName     string
	LessonCategory string
	CoachName      string
	Date           string
	TimeRange      string
}

func FormatDateTimeRange(start, end time.Time) (string, string) {
	date := start.Format("Monday, Jan 2, 2006")
	timeRange := fmt.Sprintf("%s - %s %s", start.Format("3:04 PM"), end.Format("3:04 PM"), start.Format("MST"))
	return date, timeRange
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}

func MethodLabel(method string) string {
	switch strings.TrimSpace(method) {
	case "cash":
		return "Cash"
	case "card":
		return "Card"
	case "transfer":
		return "Bank transfer"
	}
	return "Other"
}

func greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Hello,"
	}
	return fmt.Sprintf("Hello %s,", name)
}

func BuildReceiptEmail(details ReceiptDetails) Message {
	description := strings.TrimSpace(details.Description)
	if description == "" {
		description = "Payment"
	}

	lines := []string{
		greeting(details.MemberName),
		"",
		"Thank you for your payment.",
		"",
		fmt.Sprintf("Receipt #: %d", details.PaymentID),
		fmt.Sprintf("Item: %s", description),
		fmt.Sprintf("Amount: %s", formatCents(details.AmountCents)),
		fmt.Sprintf("Method: %s", MethodLabel(details.Method)),
		fmt.Sprintf("Date: %s", details.PaidAt.UTC().Format("Jan 2, 2006 15:04 MST")),
	}

	return Message{
		Subject: fmt.Sprintf("Payment receipt #%d", details.PaymentID),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildRefundEmail(details RefundDetails) Message {
	lines := []string{
		greeting(details.MemberName),
		"",
		fmt.Sprintf("A refund of %s has been issued for receipt #%d.", formatCents(details.AmountCents), details.PaymentID),
		"",
		fmt.Sprintf("Original amount: %s", formatCents(details.PaymentAmountCents)),
		fmt.Sprintf("Refunded to date: %s", formatCents(details.TotalRefundedCents)),
		fmt.Sprintf("Date: %s", details.RefundedAt.UTC().Format("Jan 2, 2006 15:04 MST")),
	}

	reason := strings.TrimSpace(details.Reason)
	if reason != "" {
		lines = append(lines, fmt.Sprintf("Reason: %s", reason))
	}

	return Message{
		Subject: fmt.Sprintf("Refund issued for receipt #%d", details.PaymentID),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildBookingReminderEmail(details BookingReminderDetails) Message {
	facilityName := strings.TrimSpace(details.FacilityName)
	if facilityName == "" {
		facilityName = "your facility"
	}
	category := strings.TrimSpace(details.LessonCategory)
	if category == "" {
		category = "session"
	}
	date := strings.TrimSpace(details.Date)
	if date == "" {
		date = "TBD"
	}
	timeRange := strings.TrimSpace(details.TimeRange)
	if timeRange == "" {
		timeRange = "TBD"
	}

	lines := []string{
		greeting(details.MemberName),
		"",
		fmt.Sprintf("Reminder: your %s is coming up.", category),
		"",
		fmt.Sprintf("Facility: %s", facilityName),
		fmt.Sprintf("Date: %s", date),
		fmt.Sprintf("Time: %s", timeRange),
	}
	if coach := strings.TrimSpace(details.CoachName); coach != "" {
		lines = append(lines, fmt.Sprintf("Coach: %s", coach))
	}

	return Message{
		Subject: fmt.Sprintf("Upcoming %s Reminder - %s", category, facilityName),
		Body:    strings.Join(lines, "\n"),
	}
}
