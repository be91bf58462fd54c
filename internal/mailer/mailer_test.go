package mailer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendgridMailer_Send(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewSendgridMailer("sg-key", "Certify", "noreply@example.com")
	m.host = srv.URL

	err := m.Send(context.Background(), Message{To: "budi@example.com", Name: "Budi", Subject: "Schedule", Text: "Approved"})
	require.NoError(t, err)

	pers := got["personalizations"].([]any)[0].(map[string]any)
	assert.Equal(t, "[Certify] Schedule", pers["subject"])
	from := got["from"].(map[string]any)
	assert.Equal(t, "noreply@example.com", from["email"])
}

func TestSendgridMailer_SendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	m := NewSendgridMailer("wrong", "Certify", "noreply@example.com")
	m.host = srv.URL

	err := m.Send(context.Background(), Message{To: "budi@example.com", Subject: "x", Text: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestConsoleMailer_Send(t *testing.T) {
	m := NewConsoleMailer(zerolog.Nop())
	assert.NoError(t, m.Send(context.Background(), Message{To: "a@example.com"}))
}
