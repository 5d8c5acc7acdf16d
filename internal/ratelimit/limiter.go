// Package ratelimit throttles repeated check-ins of a member at a facility,
// with a coarse hourly ceiling per client IP.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	ReasonCooldown = "cooldown"
	ReasonIPHourly = "ip_hourly_limit"

	ipWindow             = time.Hour
	defaultCooldown      = 10 * time.Minute
	defaultMaxIPPerHour  = 600
	defaultSweepInterval = 5 * time.Minute
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type Config struct {
	// Minimum gap between check-ins of one member at one facility; 0 disables.
	Cooldown time.Duration
	// Check-ins allowed per client IP per hour; 0 disables.
	MaxIPPerHour int
	// How often stale entries are dropped (default 5m).
	SweepInterval time.Duration
	// nil uses the system clock.
	Clock Clock
}

func DefaultConfig() *Config {
	return &Config{
		Cooldown:     defaultCooldown,
		MaxIPPerHour: defaultMaxIPPerHour,
	}
}

// Key identifies a check-in attempt. IP may be empty.
type Key struct {
	MemberID   int64
	FacilityID int64
	IP         string
}

type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, minimum one, for
// the Retry-After header.
func (r LimitResult) RetryAfterSeconds() int64 {
	return max(int64(math.Ceil(r.RetryAfter.Seconds())), 1)
}

type visit struct {
	memberID   int64
	facilityID int64
}

type ipCounter struct {
	count       int
	windowStart time.Time
}

// Limiter keeps check-in history in memory. Entries older than the cooldown
// or the IP window are swept by a background goroutine started on first use.
type Limiter struct {
	cfg Config

	mu     sync.Mutex
	visits map[visit]time.Time
	ips    map[string]*ipCounter

	sweepOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// New builds a limiter; a nil cfg uses DefaultConfig.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if c.Clock == nil {
		c.Clock = systemClock{}
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = defaultSweepInterval
	}
	return &Limiter{
		cfg:    c,
		visits: make(map[visit]time.Time),
		ips:    make(map[string]*ipCounter),
		done:   make(chan struct{}),
	}
}

// Close stops the sweeper. It is safe to call more than once.
func (l *Limiter) Close() {
	l.closeOnce.Do(func() { close(l.done) })
	l.wg.Wait()
}

func (l *Limiter) Cooldown() time.Duration {
	return l.cfg.Cooldown
}

// Check reports whether the attempt may proceed without recording it.
func (l *Limiter) Check(key Key) LimitResult {
	l.startSweeper()
	now := l.cfg.Clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.checkLocked(key, now)
}

// Record counts a stored check-in against the cooldown and the IP ceiling.
func (l *Limiter) Record(key Key) {
	now := l.cfg.Clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.recordLocked(key, now)
}

// Reservation is a check-in claimed by Reserve. Release gives it back when
// the check-in is not stored.
type Reservation struct {
	l           *Limiter
	key         Key
	at          time.Time
	windowStart time.Time
}

// Reserve checks and records the attempt under one lock, so concurrent
// attempts for the same member and facility cannot both pass. The returned
// reservation is nil when the attempt is rejected.
func (l *Limiter) Reserve(key Key) (LimitResult, *Reservation) {
	l.startSweeper()
	now := l.cfg.Clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if result := l.checkLocked(key, now); !result.Allowed {
		return result, nil
	}
	l.recordLocked(key, now)

	res := &Reservation{l: l, key: key, at: now}
	if c := l.ips[key.IP]; c != nil {
		res.windowStart = c.windowStart
	}
	return LimitResult{Allowed: true}, res
}

// Release undoes the reservation unless a later check-in has replaced it.
// It is safe on a nil reservation and when called more than once.
func (r *Reservation) Release() {
	if r == nil || r.l == nil {
		return
	}
	l := r.l
	r.l = nil

	l.mu.Lock()
	defer l.mu.Unlock()

	v := visit{r.key.MemberID, r.key.FacilityID}
	if last, ok := l.visits[v]; ok && last.Equal(r.at) {
		delete(l.visits, v)
	}
	if c := l.ips[r.key.IP]; c != nil && c.windowStart.Equal(r.windowStart) && c.count > 0 {
		c.count--
	}
}

func (l *Limiter) checkLocked(key Key, now time.Time) LimitResult {
	if l.cfg.Cooldown > 0 {
		if last, ok := l.visits[visit{key.MemberID, key.FacilityID}]; ok {
			if wait := l.cfg.Cooldown - now.Sub(last); wait > 0 {
				return LimitResult{RetryAfter: wait, Reason: ReasonCooldown}
			}
		}
	}

	if key.IP != "" && l.cfg.MaxIPPerHour > 0 {
		if c := l.ips[key.IP]; c != nil && c.count >= l.cfg.MaxIPPerHour {
			if wait := ipWindow - now.Sub(c.windowStart); wait > 0 {
				return LimitResult{RetryAfter: wait, Reason: ReasonIPHourly}
			}
		}
	}

	return LimitResult{Allowed: true}
}

func (l *Limiter) recordLocked(key Key, now time.Time) {
	l.visits[visit{key.MemberID, key.FacilityID}] = now

	if key.IP == "" {
		return
	}
	c := l.ips[key.IP]
	if c == nil || now.Sub(c.windowStart) >= ipWindow {
		l.ips[key.IP] = &ipCounter{count: 1, windowStart: now}
		return
	}
	c.count++
}

// Reset forgets the cooldown of a member at a facility.
func (l *Limiter) Reset(memberID, facilityID int64) {
	l.mu.Lock()
	delete(l.visits, visit{memberID, facilityID})
	l.mu.Unlock()
}

func (l *Limiter) startSweeper() {
	l.sweepOnce.Do(func() {
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			ticker := time.NewTicker(l.cfg.SweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-l.done:
					return
				case <-ticker.C:
					l.sweep()
				}
			}
		}()
	})
}

func (l *Limiter) sweep() {
	now := l.cfg.Clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, last := range l.visits {
		if now.Sub(last) >= l.cfg.Cooldown {
			delete(l.visits, k)
		}
	}
	for ip, c := range l.ips {
		if now.Sub(c.windowStart) >= ipWindow {
			delete(l.ips, ip)
		}
	}
}

// LogRejected records a throttled check-in on the request logger.
func LogRejected(ctx context.Context, key Key, result LimitResult) {
	log.Ctx(ctx).Warn().
		Str("event", "checkin_throttled").
		Int64("member_id", key.MemberID).
		Int64("facility_id", key.FacilityID).
		Str("ip", key.IP).
		Str("reason", result.Reason).
		Dur("retry_after", result.RetryAfter).
		Msg("Check-in throttled")
}
