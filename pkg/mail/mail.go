// Package mail sends HTML status emails through the Gmail send endpoint
// using the session's authenticated client.
package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

const defaultSendURL = "https://gmail.googleapis.com/gmail/v1/users/me/messages/send"

// Message is an outgoing HTML email.
type Message struct {
	From     string
	To       []string
	Subject  string
	HTMLBody string
}

// SendError is a send failure carrying the upstream status so the
// failure classifier can recognize revoked-grant responses.
type SendError struct {
	Status  int
	Message string
}

func (e *SendError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("mail send failed: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("mail send failed: status %d", e.Status)
}

func (e *SendError) StatusCode() int { return e.Status }

// Sender posts messages to the Gmail API.
type Sender struct {
	SendURL string // overridable for tests
}

func NewSender() *Sender {
	return &Sender{SendURL: defaultSendURL}
}

// Send submits the message. The HTTP client comes from the session gate
// and already carries the credentials.
func (s *Sender) Send(ctx context.Context, httpc *http.Client, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("no recipients")
	}

	payload, err := json.Marshal(map[string]string{"raw": encodeRaw(msg)})
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.sendURL(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := retryablehttp.NewClient()
	client.HTTPClient = httpc
	client.RetryMax = 2
	client.Logger = nil

	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("mail send failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(res.Body)
		return &SendError{
			Status:  res.StatusCode,
			Message: gjson.GetBytes(body, "error.message").Str,
		}
	}
	return nil
}

func (s *Sender) sendURL() string {
	if s.SendURL != "" {
		return s.SendURL
	}
	return defaultSendURL
}

// encodeRaw builds the RFC 2822 message and encodes it the way the API
// expects: base64 URL-safe, no padding.
func encodeRaw(msg Message) string {
	var b strings.Builder
	if msg.From != "" {
		fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	}
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)
	return base64.RawURLEncoding.EncodeToString([]byte(b.String()))
}
