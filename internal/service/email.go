package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
	"github.com/templui/hrvault/internal/model"
	"github.com/templui/hrvault/internal/validation"
)

var ErrInvalidRecipient = errors.New("invalid recipient address")

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appName   string
}

func NewEmailService(apiKey, fromEmail, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appName:   appName,
	}
}

// SendShareLinkEmail mails a share URL for file to the given address.
func (s *EmailService) SendShareLinkEmail(ctx context.Context, to, senderName string, file *model.VaultFile, link *model.ShareLink, shareURL string) error {
	addr, err := validation.Recipient(to)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecipient, err)
	}

	subject, body := shareLinkEmailTemplate(senderName, file.OriginalName, ResourceLabel(file.ResourceType), shareURL, link, s.appName)

	if s.isDev {
		slog.Info("email sent (dev mode)", "type", "share_link", "to", addr, "subject", subject, "url", shareURL)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{addr},
		Subject: subject,
		Text:    body,
	}

	_, err = s.client.Emails.SendWithContext(ctx, params)
	if err == nil {
		slog.Info("email sent", "type", "share_link", "to", addr)
	}
	return err
}
