package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmdesk/internal/config"
)

func TestSendPostsSendGridPayload(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewSendGridClient(config.MailConfig{APIKey: "sg-key", BaseURL: srv.URL, From: "farm@example.com"})
	err := client.Send(context.Background(), Message{
		To:      "admin@example.com",
		ReplyTo: "visitor@example.com",
		Subject: "Contact form",
		Text:    "hello",
	})
	require.NoError(t, err)

	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, "admin@example.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "farm@example.com", got.From.Email)
	require.NotNil(t, got.ReplyTo)
	assert.Equal(t, "visitor@example.com", got.ReplyTo.Email)
	assert.Equal(t, "text/plain", got.Content[0].Type)
}

func TestSendReportsRelayErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key","field":null}]}`))
	}))
	defer srv.Close()

	client := NewSendGridClient(config.MailConfig{APIKey: "bad", BaseURL: srv.URL, From: "farm@example.com"})
	err := client.Send(context.Background(), Message{To: "a@example.com", Subject: "s", Text: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}

func TestVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/scopes", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"scopes":["mail.send"]}`))
	}))
	defer srv.Close()

	client := NewSendGridClient(config.MailConfig{APIKey: "sg-key", BaseURL: srv.URL})
	assert.NoError(t, client.Verify(context.Background()))
}

func TestUnconfiguredClient(t *testing.T) {
	client := NewSendGridClient(config.MailConfig{BaseURL: "http://127.0.0.1:1"})
	assert.ErrorIs(t, client.Send(context.Background(), Message{}), ErrNotConfigured)
	assert.ErrorIs(t, client.Verify(context.Background()), ErrNotConfigured)
}
