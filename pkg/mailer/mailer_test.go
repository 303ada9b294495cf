package mailer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webfolio/webfolio-api/pkg/httpclient"
	"github.com/webfolio/webfolio-api/pkg/logger"
	"github.com/webfolio/webfolio-api/pkg/mailer"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

func testMessage() *mailer.Message {
	return &mailer.Message{
		From:    "noreply@webfolio.dev",
		To:      []string{"owner@webfolio.dev"},
		ReplyTo: "visitor@example.com",
		Subject: "New contact form submission from Jane Doe",
		Text:    "Name: Jane Doe\nEmail: visitor@example.com\n\nHello there",
	}
}

func TestClient_DisabledReturnsMockID(t *testing.T) {
	client := mailer.NewClient("", false, nil)
	assert.False(t, client.Enabled())

	id, err := client.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, mailer.MockIDPrefix))
}

func TestClient_MockIDIsDeterministic(t *testing.T) {
	client := mailer.NewClient("", false, nil)

	id1, err := client.Send(context.Background(), testMessage())
	require.NoError(t, err)
	id2, err := client.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "same payload must yield the same mock id")

	other := testMessage()
	other.Text = "a different body"
	id3, err := client.Send(context.Background(), other)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3, "different payloads must yield different mock ids")
}

func TestClient_EnabledRequiresAPIKey(t *testing.T) {
	// The enabled flag alone is not enough; without a key the client
	// stays in mock mode instead of sending doomed requests
	client := mailer.NewClient("", true, httpclient.NewStandardClient())
	assert.False(t, client.Enabled())

	id, err := client.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, mailer.MockIDPrefix))
}

func TestClient_SendSuccess(t *testing.T) {
	var gotAuth string
	var gotPayload mailer.Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"msg_12345"}`))
	}))
	defer srv.Close()

	oldURL := mailer.SendURL
	mailer.SendURL = srv.URL
	defer func() { mailer.SendURL = oldURL }()

	client := mailer.NewClient("re_testkey", true, httpclient.NewStandardClient())
	require.True(t, client.Enabled())

	id, err := client.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.Equal(t, "msg_12345", id)
	assert.Equal(t, "Bearer re_testkey", gotAuth)
	assert.Equal(t, "visitor@example.com", gotPayload.ReplyTo)
	assert.Equal(t, []string{"owner@webfolio.dev"}, gotPayload.To)
}

func TestClient_ProviderErrorFailsSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"validation_error","message":"invalid from address"}`))
	}))
	defer srv.Close()

	oldURL := mailer.SendURL
	mailer.SendURL = srv.URL
	defer func() { mailer.SendURL = oldURL }()

	client := mailer.NewClient("re_testkey", true, httpclient.NewStandardClient())

	id, err := client.Send(context.Background(), testMessage())
	assert.Error(t, err)
	assert.Empty(t, id)
}
