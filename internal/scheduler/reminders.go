package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Trainyard/internal/config"
	"github.com/codr1/Trainyard/internal/db"
	dbgen "github.com/codr1/Trainyard/internal/db/generated"
	"github.com/codr1/Trainyard/internal/email"
	"github.com/codr1/Trainyard/internal/request"
)

const (
	reminderJobName                  = "booking_reminders"
	defaultReminderHoursBefore int64 = 24
	reminderJobWindow                = 15 * time.Minute
	reminderJobTimeout               = 2 * time.Minute
)

// RegisterReminderJobs registers the scheduled booking reminder task.
func RegisterReminderJobs(database *db.DB, emailClient email.EmailSender, cfg config.SchedulerConfig) error {
	if database == nil {
		return fmt.Errorf("reminder jobs require database")
	}

	_, err := Register(Job{
		Name:    reminderJobName,
		Cron:    cfg.ReminderCron,
		Timeout: reminderJobTimeout,
		Run: func(ctx context.Context) error {
			if emailClient == nil {
				log.Ctx(ctx).Debug().Msg("Reminder job skipped: email client not configured")
				return nil
			}
			sent, err := SendBookingReminders(ctx, database, emailClient, time.Now(), cfg.ReminderHoursBefore)
			if err != nil {
				return err
			}
			if sent > 0 {
				log.Ctx(ctx).Info().Int("sent", sent).Msg("Booking reminders queued")
			}
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("add booking reminder job: %w", err)
	}
	return nil
}

// SendBookingReminders queues a reminder for every scheduled booking that
// starts within [now+hoursBefore, now+hoursBefore+window) at each active
// facility. It returns the number of reminders queued.
func SendBookingReminders(ctx context.Context, database *db.DB, emailClient email.EmailSender, now time.Time, hoursBefore int64) (int, error) {
	if database == nil {
		return 0, fmt.Errorf("booking reminders require database")
	}
	if emailClient == nil {
		return 0, nil
	}
	if hoursBefore <= 0 {
		hoursBefore = defaultReminderHoursBefore
	}

	logger := log.Ctx(ctx)
	facilities, err := database.Queries.ListFacilities(ctx)
	if err != nil {
		return 0, fmt.Errorf("load facilities: %w", err)
	}

	windowStart := now.UTC().Add(time.Duration(hoursBefore) * time.Hour)
	windowEnd := windowStart.Add(reminderJobWindow)

	sent := 0
	for _, facility := range facilities {
		if facility.Status != "active" {
			continue
		}
		facilityLogger := logger.With().Int64("facility_id", facility.ID).Logger()

		bookings, err := database.Queries.ListBookingsStartingBetween(ctx, dbgen.ListBookingsStartingBetweenParams{
			FacilityID: facility.ID,
			StartTime:  windowStart,
			EndTime:    windowEnd,
		})
		if err != nil {
			facilityLogger.Error().Err(err).Msg("Failed to load bookings for reminder job")
			continue
		}
		if len(bookings) == 0 {
			continue
		}

		facilityLoc, err := request.LoadLocation(facility.Timezone)
		if err != nil {
			facilityLogger.Error().Err(err).Str("timezone", facility.Timezone).Msg("Failed to load facility timezone for reminders")
		}

		for _, booking := range bookings {
			if sendBookingReminder(ctx, emailClient, facility, booking, facilityLoc, &facilityLogger) {
				sent++
			}
		}
	}

	return sent, nil
}

func sendBookingReminder(ctx context.Context, emailClient email.EmailSender, facility dbgen.Facility, booking dbgen.ListBookingsStartingBetweenRow, facilityLoc *time.Location, logger *zerolog.Logger) bool {
	if !booking.MemberEmail.Valid || strings.TrimSpace(booking.MemberEmail.String) == "" {
		return false
	}

	date, timeRange := email.FormatDateTimeRange(booking.StartTime.In(facilityLoc), booking.EndTime.In(facilityLoc))
	coachName := ""
	if booking.CoachFirstName.Valid {
		coachName = strings.TrimSpace(booking.CoachFirstName.String + " " + booking.CoachLastName.String)
	}

	reminder := email.BuildBookingReminderEmail(email.BookingReminderDetails{
		FacilityName:   facility.Name,
		MemberName:     booking.MemberFirstName,
		LessonCategory: booking.LessonCategory.String,
		CoachName:      coachName,
		Date:           date,
		TimeRange:      timeRange,
	})

	bookingLogger := logger.With().Int64("booking_id", booking.ID).Int64("member_id", booking.MemberID).Logger()
	email.Deliver(ctx, emailClient, booking.MemberEmail.String, reminder, "", &bookingLogger)
	return true
}
