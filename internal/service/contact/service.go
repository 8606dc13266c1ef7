// Package contact relays public contact-form enquiries to the farm admin.
package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	"github.com/mamadbah2/farmdesk/pkg/apperr"
	"github.com/mamadbah2/farmdesk/pkg/clients/mailer"
	"github.com/mamadbah2/farmdesk/pkg/phone"
)

type Service struct {
	mail        mailer.Client
	recipient   string
	phoneRegion string
	logger      *zap.Logger
}

func NewService(mail mailer.Client, recipient, phoneRegion string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{mail: mail, recipient: recipient, phoneRegion: phoneRegion, logger: logger}
}

// Send validates msg and forwards it to the admin recipient with the
// visitor as reply-to.
func (s *Service) Send(ctx context.Context, msg models.ContactMessage) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.ToLower(strings.TrimSpace(msg.Email))
	msg.Subject = strings.TrimSpace(msg.Subject)
	if err := models.Validate(msg); err != nil {
		return err
	}
	if msg.Phone != "" {
		normalized, err := phone.Normalize(msg.Phone, s.phoneRegion)
		if err != nil {
			return apperr.Validation("Validation failed", "phone must be a valid phone number")
		}
		msg.Phone = normalized
	}

	err := s.mail.Send(ctx, mailer.Message{
		To:      s.recipient,
		ReplyTo: msg.Email,
		Subject: "[Contact] " + msg.Subject,
		Text:    render(msg),
	})
	if err != nil {
		s.logger.Error("contact message not delivered", zap.String("from", msg.Email), zap.Error(err))
		return relayError(err, "Failed to send message")
	}

	s.logger.Info("contact message delivered", zap.String("from", msg.Email))
	return nil
}

// Verify checks the relay credentials.
func (s *Service) Verify(ctx context.Context) error {
	if err := s.mail.Verify(ctx); err != nil {
		return relayError(err, "Mail relay verification failed")
	}
	return nil
}

func render(msg models.ContactMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", msg.Name)
	fmt.Fprintf(&b, "Email: %s\n", msg.Email)
	if msg.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", msg.Phone)
	}
	fmt.Fprintf(&b, "Subject: %s\n\n", msg.Subject)
	b.WriteString(msg.Message)
	return b.String()
}

func relayError(err error, message string) error {
	if errors.Is(err, mailer.ErrNotConfigured) {
		return apperr.Wrap(apperr.CodeDependency, err, "Mail relay is not configured")
	}
	return apperr.Wrap(apperr.CodeDependency, err, message)
}
