package service

import (
	"context"
	"fmt"
	"html"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"sorokinportal/internal/logging"
)

// emailSender is the part of the SES client the service uses
type emailSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     emailSender
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
	logger     *logging.Logger
}

// NewEmailService creates a new email service. An empty fromEmail yields a disabled service.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, debug bool, logger *logging.Logger) (*EmailService, error) {
	if fromEmail == "" {
		logger.Info("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{debug: debug, logger: logger}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("Email service enabled", "from", fromEmail, "region", awsRegion)
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL, debug, logger), nil
}

func newEmailService(client emailSender, fromEmail, fromName, appBaseURL string, debug bool, logger *logging.Logger) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    client != nil,
		debug:      debug,
		logger:     logger,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendPasswordResetEmail sends a password reset email with a reset link
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string) error {
	if !s.enabled {
		s.logger.Info("Skipping email send (service disabled)", "kind", "password_reset")
		return nil
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.appBaseURL, url.QueryEscape(resetToken))
	if s.debug {
		s.logger.Debug("Reset link generated", "link", resetLink)
	}

	subject := "Reset your Sorokin Portal password"
	htmlBody := fmt.Sprintf(emailLayout, "Password Reset", fmt.Sprintf(`
			<p>Hi %s,</p>
			<p>Someone asked to reset the password on your Sorokin Portal account.</p>
			<p style="text-align: center;"><a href="%s" class="button">Choose a new password</a></p>
			<p style="word-break: break-all; font-size: 12px; color: #666;">%s</p>
			<p><strong>This link expires in 1 hour and works once.</strong></p>
			<p>If you didn't ask for this you can ignore this email.</p>`, html.EscapeString(toName), resetLink, resetLink))

	textBody := fmt.Sprintf(`Hi %s,

Someone asked to reset the password on your Sorokin Portal account.

Open this link to choose a new password:
%s

This link expires in 1 hour and works once.
If you didn't ask for this you can ignore this email.
`, toName, resetLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendWelcomeEmail greets a newly registered student
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if !s.enabled {
		s.logger.Info("Skipping email send (service disabled)", "kind", "welcome")
		return nil
	}

	subject := "Welcome to Sorokin Portal"
	htmlBody := fmt.Sprintf(emailLayout, "Welcome aboard!", fmt.Sprintf(`
			<p>Hi %s,</p>
			<p>Your account is ready. Pick a course, hatch your first pet and start your streak.</p>
			<p style="text-align: center;"><a href="%s/dashboard" class="button">Open your dashboard</a></p>`, html.EscapeString(toName), s.appBaseURL))

	textBody := fmt.Sprintf(`Hi %s,

Your account is ready. Pick a course, hatch your first pet and start your streak.

%s/dashboard
`, toName, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if s.debug {
		s.logger.Debug("Calling SES SendEmail", "to", toEmail, "subject", subject)
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	s.logger.Info("Email sent", "subject", subject, "message_id", aws.ToString(result.MessageId))
	return nil
}

const emailLayout = `<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #6d4aff; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #6d4aff; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header"><h1>%s</h1></div>
		<div class="content">%s
		</div>
		<div class="footer"><p>This is an automated email from Sorokin Portal. Please do not reply.</p></div>
	</div>
</body>
</html>
`
