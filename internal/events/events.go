// Package events publishes domain events about bookings, passes, payments,
// attendance and training logs.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	BookingCreated         = "booking.created"
	BookingCancelled       = "booking.cancelled"
	MemberProductPurchased = "member_product.purchased"
	MemberProductRedeemed  = "member_product.redeemed"
	PaymentRecorded        = "payment.recorded"
	PaymentRefunded        = "payment.refunded"
	AttendanceCheckedIn    = "attendance.checked_in"
	TrainingLogCreated     = "training_log.created"
)

const defaultPublishTimeout = 5 * time.Second

// Event is the envelope sent for every domain event. Type doubles as the
// routing key.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NewEvent stamps an event with a fresh ID and the current UTC time.
func NewEvent(eventType string, data any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Emit publishes an event and logs instead of failing when the broker is
// unavailable. A nil publisher is a no-op.
func Emit(ctx context.Context, publisher Publisher, eventType string, data any) {
	if publisher == nil {
		return
	}
	event := NewEvent(eventType, data)

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultPublishTimeout)
	defer cancel()

	if err := publisher.Publish(publishCtx, event); err != nil {
		log.Ctx(ctx).Warn().
			Err(err).
			Str("event_type", eventType).
			Str("event_id", event.ID).
			Msg("Failed to publish domain event")
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
func (Discard) Close() error                         { return nil }
