package testutil

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codr1/Trainyard/internal/events"
)

// EventRecorder is an events.Publisher that keeps every published event.
type EventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *EventRecorder) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *EventRecorder) Close() error { return nil }

// Types returns the published event types in order.
func (r *EventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, event := range r.events {
		types = append(types, event.Type)
	}
	return types
}

// CacheRecorder is a cache.Store that serves entries from memory and records
// invalidated scopes.
type CacheRecorder struct {
	mu      sync.Mutex
	entries map[string][]byte
	dropped []string
}

func (c *CacheRecorder) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	return value, ok, nil
}

func (c *CacheRecorder) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string][]byte)
	}
	c.entries[key] = value
	return nil
}

func (c *CacheRecorder) DeleteScope(_ context.Context, scope string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, scope+":") {
			delete(c.entries, key)
		}
	}
	c.dropped = append(c.dropped, scope)
	return nil
}

// Len returns the number of cached entries.
func (c *CacheRecorder) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Dropped returns the invalidated scopes in order.
func (c *CacheRecorder) Dropped() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.dropped...)
}

// SentEmail is one message captured by EmailRecorder.
type SentEmail struct {
	Recipient string
	Subject   string
	Body      string
}

// EmailRecorder is an email.EmailSender that captures messages on a channel.
type EmailRecorder struct {
	sent chan SentEmail
}

func NewEmailRecorder() *EmailRecorder {
	return &EmailRecorder{sent: make(chan SentEmail, 16)}
}

func (e *EmailRecorder) Send(ctx context.Context, recipient, subject, body string) error {
	return e.SendFrom(ctx, recipient, subject, body, "")
}

func (e *EmailRecorder) SendFrom(_ context.Context, recipient, subject, body, _ string) error {
	e.sent <- SentEmail{Recipient: recipient, Subject: subject, Body: body}
	return nil
}

// Next waits for the next captured message.
func (e *EmailRecorder) Next(t *testing.T) SentEmail {
	t.Helper()

	select {
	case msg := <-e.sent:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for email")
		return SentEmail{}
	}
}
