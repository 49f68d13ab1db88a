// Package mail delivers plain text messages through the Mailgun HTTP API.
package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultBaseURL is the Mailgun API host.
const DefaultBaseURL = "https://api.mailgun.net"

// Message is a plain text email.
type Message struct {
	To      string
	Subject string
	Text    string
}

// HTTPClient is the subset of *http.Client used by the sender.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds Mailgun settings.
type Config struct {
	APIKey  string
	Domain  string
	BaseURL string
	// From defaults to "Ship Log <postmaster@DOMAIN>".
	From string
}

// MailgunSender sends messages with the Mailgun messages endpoint.
type MailgunSender struct {
	cfg  Config
	http HTTPClient
}

// NewMailgunSender returns a sender for cfg.
func NewMailgunSender(cfg Config, httpClient HTTPClient) *MailgunSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.From == "" {
		cfg.From = fmt.Sprintf("Ship Log <postmaster@%s>", cfg.Domain)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &MailgunSender{cfg: cfg, http: httpClient}
}

// Send posts msg to Mailgun. Any non-2xx response is an error.
func (s *MailgunSender) Send(ctx context.Context, msg Message) error {
	if s.cfg.APIKey == "" || s.cfg.Domain == "" {
		return errors.New("mailgun: api key and domain are required")
	}

	form := url.Values{}
	form.Set("from", s.cfg.From)
	form.Set("to", msg.To)
	form.Set("subject", msg.Subject)
	form.Set("text", msg.Text)

	endpoint := fmt.Sprintf("%s/v3/%s/messages", strings.TrimRight(s.cfg.BaseURL, "/"), url.PathEscape(s.cfg.Domain))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("mailgun: build request: %w", err)
	}
	req.SetBasicAuth("api", s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("mailgun: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("mailgun: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("mailgun: decode response: %w", err)
	}
	return nil
}
