package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/farmdesk/internal/config"
)

// ErrNotConfigured is returned when no relay API key is configured.
var ErrNotConfigured = errors.New("mail relay not configured")

// Client sends transactional email through a relay.
type Client interface {
	Send(ctx context.Context, msg Message) error
	Verify(ctx context.Context) error
}

// Message is a single plain-text email.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// SendGridClient talks to the SendGrid v3 HTTP API.
type SendGridClient struct {
	httpClient *resty.Client
	from       string
	apiKey     string
}

// NewSendGridClient builds a relay client from configuration.
func NewSendGridClient(cfg config.MailConfig) *SendGridClient {
	httpClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &SendGridClient{httpClient: httpClient, from: cfg.From, apiKey: cfg.APIKey}
}

type address struct {
	Email string `json:"email"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	ReplyTo          *address          `json:"reply_to,omitempty"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

type apiError struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

func (e *apiError) String() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		if item.Field != "" {
			msgs = append(msgs, item.Field+": "+item.Message)
			continue
		}
		msgs = append(msgs, item.Message)
	}
	return strings.Join(msgs, "; ")
}

// Send delivers msg. SendGrid answers 202 on acceptance.
func (c *SendGridClient) Send(ctx context.Context, msg Message) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	body := sendRequest{
		Personalizations: []personalization{{To: []address{{Email: msg.To}}}},
		From:             address{Email: c.from},
		Subject:          msg.Subject,
		Content:          []content{{Type: "text/plain", Value: msg.Text}},
	}
	if msg.HTML != "" {
		body.Content = append(body.Content, content{Type: "text/html", Value: msg.HTML})
	}
	if msg.ReplyTo != "" {
		body.ReplyTo = &address{Email: msg.ReplyTo}
	}

	apiErr := new(apiError)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetError(apiErr).
		Post("/v3/mail/send")
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail relay error: status=%d, message=%s", resp.StatusCode(), apiErr.String())
	}
	return nil
}

// Verify checks that the configured API key is accepted by the relay.
func (c *SendGridClient) Verify(ctx context.Context) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	apiErr := new(apiError)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetError(apiErr).
		Get("/v3/scopes")
	if err != nil {
		return fmt.Errorf("verify mail relay: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail relay rejected credentials: status=%d, message=%s", resp.StatusCode(), apiErr.String())
	}
	return nil
}
