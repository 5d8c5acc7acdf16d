package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Trainyard/internal/config"
)

const charsetUTF8 = "UTF-8"

var errMissingRecipient = errors.New("recipient is required")

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESClient sends plain-text mail through SESv2 from the configured sender.
type SESClient struct {
	api    sesAPI
	sender string
}

// NewSESClient builds a client from the email section of the app config.
// Credentials are static; the facility runs a single sending identity.
func NewSESClient(ctx context.Context, cfg config.EmailConfig) (*SESClient, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("ses region, sender and credentials are required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SESClient{
		api:    sesv2.NewFromConfig(awsCfg),
		sender: cfg.Sender,
	}, nil
}

func (c *SESClient) Send(ctx context.Context, recipient, subject, body string) error {
	return c.SendFrom(ctx, recipient, subject, body, "")
}

// SendFrom sends with an optional From override; empty uses the configured
// sender.
func (c *SESClient) SendFrom(ctx context.Context, recipient, subject, body, sender string) error {
	if c == nil || c.api == nil {
		return fmt.Errorf("ses client is not initialized")
	}

	from := strings.TrimSpace(sender)
	if from == "" {
		from = c.sender
	}
	input, err := buildSendInput(from, recipient, subject, body)
	if err != nil {
		return err
	}

	out, err := c.api.SendEmail(ctx, input)
	if err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Str("recipient", recipient).
			Str("subject", subject).
			Msg("Failed to send SES email")
		return fmt.Errorf("send ses email: %w", err)
	}
	if out != nil && out.MessageId != nil {
		log.Ctx(ctx).Debug().Str("message_id", *out.MessageId).Msg("SES accepted email")
	}
	return nil
}

func buildSendInput(from, recipient, subject, body string) (*sesv2.SendEmailInput, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, errMissingRecipient
	}
	if from == "" {
		return nil, fmt.Errorf("sender is required")
	}

	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{recipient},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String(charsetUTF8)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String(charsetUTF8)},
				},
			},
		},
	}, nil
}
