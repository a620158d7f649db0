package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	var gotRaw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(body, &payload))
		gotRaw = payload["raw"]
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg-1"}`))
	}))
	defer srv.Close()

	s := &Sender{SendURL: srv.URL}
	err := s.Send(context.Background(), http.DefaultClient, Message{
		From:     "noreply@example.com",
		To:       []string{"a@example.com", "b@example.com"},
		Subject:  "Weekly status",
		HTMLBody: "<h1>All green</h1>",
	})
	require.NoError(t, err)

	decoded, err := base64.RawURLEncoding.DecodeString(gotRaw)
	require.NoError(t, err)
	text := string(decoded)
	require.Contains(t, text, "To: a@example.com, b@example.com")
	require.Contains(t, text, "Subject: Weekly status")
	require.Contains(t, text, "Content-Type: text/html")
	require.Contains(t, text, "<h1>All green</h1>")
}

func TestSendNoRecipients(t *testing.T) {
	s := NewSender()
	err := s.Send(context.Background(), http.DefaultClient, Message{Subject: "x"})
	require.Error(t, err)
}

func TestSendUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"insufficient scopes"}}`))
	}))
	defer srv.Close()

	s := &Sender{SendURL: srv.URL}
	err := s.Send(context.Background(), http.DefaultClient, Message{To: []string{"a@example.com"}})
	require.Error(t, err)

	var se *SendError
	require.ErrorAs(t, err, &se)
	require.Equal(t, 403, se.StatusCode())
}
