package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	pkglogger "github.com/mahadigital/schooldesk/pkg/logger"
)

// EmailService defines the interface for sending transactional mail
type EmailService interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// TempPasswordEmail renders the subject and body of the temporary-password
// notification. The plaintext password only ever travels inside this message.
func TempPasswordEmail(tempPassword string, expiry time.Duration) (subject, htmlBody string) {
	minutes := int(expiry.Minutes())

	subject = "MahaDigital School - Temporary login password"
	htmlBody = fmt.Sprintf(`
<div style="font-family: Arial, sans-serif;">
  <h2>MahaDigital School</h2>
  <p>Your temporary password is:</p>
  <p style="font-size:18px;"><b>%s</b></p>
  <p>This password is valid for <b>%d minutes</b>.</p>
  <p>Please change your password after login.</p>
</div>
`, tempPassword, minutes)

	return subject, htmlBody
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

// SendEmail delivers one HTML message via SES
func (s *AWSSESEmailService) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send email via SES",
			slog.String("to", pkglogger.SanitizedEmail(to)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("to", pkglogger.SanitizedEmail(to)),
		slog.String("message_id", *result.MessageId))

	return nil
}
