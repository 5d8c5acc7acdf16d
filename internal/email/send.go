// Package email renders member notifications and delivers them through SES.
package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	dbgen "github.com/codr1/Trainyard/internal/db/generated"
)

const sendEmailTimeout = 5 * time.Second

// EmailSender delivers plain-text mail. SESClient is the production
// implementation.
type EmailSender interface {
	Send(ctx context.Context, recipient, subject, body string) error
	SendFrom(ctx context.Context, recipient, subject, body, sender string) error
}

// MemberLookup is the slice of the query layer needed to resolve a recipient.
type MemberLookup interface {
	GetMemberByID(ctx context.Context, id int64) (dbgen.Member, error)
}

// Deliver sends message asynchronously. The send outlives the caller's
// context but is bounded by its own timeout.
func Deliver(ctx context.Context, client EmailSender, recipient string, message Message, sender string, logger *zerolog.Logger) {
	if client == nil {
		return
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" || message.Subject == "" || message.Body == "" {
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendEmailTimeout)
	go func() {
		defer cancel()
		if err := client.SendFrom(sendCtx, recipient, message.Subject, message.Body, sender); err != nil {
			if logger != nil {
				logger.Error().Err(err).Str("subject", message.Subject).Msg("Failed to send email")
			}
			return
		}
		if logger != nil {
			logger.Info().Str("subject", message.Subject).Msg("Email sent")
		}
	}()
}

// SendMemberEmail looks up the member's address and delivers message to it.
// Members without an email address are skipped.
func SendMemberEmail(ctx context.Context, q MemberLookup, client EmailSender, memberID int64, message Message, logger *zerolog.Logger) {
	if client == nil || q == nil {
		return
	}
	if memberID <= 0 {
		if logger != nil {
			logger.Warn().Int64("member_id", memberID).Msg("Skipping email with invalid member ID")
		}
		return
	}

	member, err := q.GetMemberByID(ctx, memberID)
	if err != nil {
		if logger != nil {
			logger.Error().Err(err).Int64("member_id", memberID).Msg("Failed to load member for email")
		}
		return
	}
	if !member.Email.Valid {
		return
	}

	Deliver(ctx, client, member.Email.String, message, "", logger)
}

// MemberName joins first and last name.
func MemberName(member dbgen.Member) string {
	return strings.TrimSpace(member.FirstName + " " + member.LastName)
}
