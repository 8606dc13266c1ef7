package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/farmdesk/internal/config"
)

// ErrEmptyMessage is returned before any request when the recipient or
// body is blank.
var ErrEmptyMessage = errors.New("whatsapp: recipient and body are required")

// Client sends farm alerts over the WhatsApp Cloud API.
type Client interface {
	SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*SendTextMessageResponse, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	http          *resty.Client
	phoneNumberID string
}

func NewClient(cfg config.WhatsAppConfig) *APIClient {
	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/") + "/" + cfg.APIVersion).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && r.StatusCode() >= 500
		})

	return &APIClient{http: rc, phoneNumberID: cfg.PhoneNumberID}
}

type SendTextMessageRequest struct {
	To         string
	Body       string
	PreviewURL bool
}

type SendTextMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type textBody struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

type textMessage struct {
	Product string   `json:"messaging_product"`
	To      string   `json:"to"`
	Type    string   `json:"type"`
	Text    textBody `json:"text"`
}

// APIError is a non-2xx answer from the Cloud API.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	code := e.Code
	if code == 0 {
		code = e.Status
	}
	return fmt.Sprintf("whatsapp api error: code=%d, message=%s", code, e.Message)
}

type errorEnvelope struct {
	Error struct {
		Message   string `json:"message"`
		Code      int    `json:"code"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

func (c *APIClient) SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*SendTextMessageResponse, error) {
	if strings.TrimSpace(req.To) == "" || strings.TrimSpace(req.Body) == "" {
		return nil, ErrEmptyMessage
	}

	result := new(SendTextMessageResponse)
	failure := new(errorEnvelope)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(textMessage{
			Product: "whatsapp",
			To:      req.To,
			Type:    "text",
			Text:    textBody{Body: req.Body, PreviewURL: req.PreviewURL},
		}).
		SetResult(result).
		SetError(failure).
		Post(c.phoneNumberID + "/messages")
	if err != nil {
		return nil, fmt.Errorf("send whatsapp message: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, &APIError{Status: resp.StatusCode(), Code: failure.Error.Code, Message: failure.Error.Message}
	}
	return result, nil
}
