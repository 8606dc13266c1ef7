package automation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmdesk/internal/domain/models"
	"github.com/mamadbah2/farmdesk/pkg/clients/whatsapp"
)

// Notifier delivers automation alerts.
type Notifier interface {
	Notify(ctx context.Context, alerts []models.Alert) error
}

// LogNotifier writes alerts to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, alerts []models.Alert) error {
	for _, a := range alerts {
		fields := []zap.Field{
			zap.String("kind", string(a.Kind)),
			zap.String("severity", string(a.Severity)),
			zap.String("message", a.Message),
		}
		if a.FeedType != "" {
			fields = append(fields, zap.String("feedType", string(a.FeedType)), zap.String("month", a.Month))
		}
		if a.Severity == models.SeverityInfo {
			n.logger.Info("automation notice", fields...)
			continue
		}
		n.logger.Warn("automation alert", fields...)
	}
	return nil
}

// WhatsAppNotifier sends alerts as one text message to the farm manager.
type WhatsAppNotifier struct {
	client    whatsapp.Client
	recipient string
}

func NewWhatsAppNotifier(client whatsapp.Client, recipient string) *WhatsAppNotifier {
	return &WhatsAppNotifier{client: client, recipient: recipient}
}

func (n *WhatsAppNotifier) Notify(ctx context.Context, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	lines := make([]string, 0, len(alerts))
	for _, a := range alerts {
		if a.Severity == models.SeverityInfo {
			lines = append(lines, a.Message)
			continue
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", strings.ToUpper(string(a.Severity)), a.Message))
	}

	_, err := n.client.SendTextMessage(ctx, whatsapp.SendTextMessageRequest{
		To:   n.recipient,
		Body: strings.Join(lines, "\n"),
	})
	if err != nil {
		return fmt.Errorf("whatsapp notify: %w", err)
	}
	return nil
}

// MultiNotifier fans alerts out to every notifier and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, alerts []models.Alert) error {
	var errs error
	for _, n := range m {
		errs = multierr.Append(errs, n.Notify(ctx, alerts))
	}
	return errs
}
