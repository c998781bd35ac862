// Package mail delivers notifications through the Gmail API using an OAuth2
// refresh-token grant.
package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/randomoranges/can-do/assets"
)

const (
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	defaultSendURL  = "https://gmail.googleapis.com/gmail/v1/users/me/messages/send"

	httpTimeout = 15 * time.Second
)

// ErrNoCredentials means the OAuth client id/secret/refresh token triple is
// incomplete; the sender cannot be constructed.
var ErrNoCredentials = errors.New("mail: gmail oauth credentials not set")

// Options configures a Sender. TokenURL and SendURL default to the Gmail
// endpoints and exist so tests can point at a local server.
type Options struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	FromName     string
	FromEmail    string
	AppURL       string
	TokenURL     string
	SendURL      string
}

// Sender submits base64url-encoded MIME messages to the Gmail send endpoint.
// The access token is refreshed lazily and reused until expiry.
type Sender struct {
	client    *http.Client
	sendURL   string
	appURL    string
	fromName  string
	fromEmail string
	tmpl      *template.Template
	log       *zap.Logger
}

// New validates credentials and prepares the token source and HTML template.
func New(opts Options, log *zap.Logger) (*Sender, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" || opts.RefreshToken == "" {
		return nil, ErrNoCredentials
	}
	if opts.TokenURL == "" {
		opts.TokenURL = defaultTokenURL
	}
	if opts.SendURL == "" {
		opts.SendURL = defaultSendURL
	}

	tmpl, err := template.New("email").Parse(assets.EmailHTML)
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}

	conf := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: opts.TokenURL},
	}

	// The refresh grant goes through this client, which bounds it with the
	// same timeout as the send call.
	base := &http.Client{Timeout: httpTimeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	source := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: opts.RefreshToken})

	client := oauth2.NewClient(ctx, source)
	client.Timeout = httpTimeout

	return &Sender{
		client:    client,
		sendURL:   opts.SendURL,
		appURL:    opts.AppURL,
		fromName:  opts.FromName,
		fromEmail: opts.FromEmail,
		tmpl:      tmpl,
		log:       log,
	}, nil
}

// Send assembles and submits one message. Any failure — token refresh, MIME
// assembly, non-2xx from the send endpoint — comes back as an error and the
// caller must treat the message as not sent.
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	mime, err := s.buildMIME(to, subject, body)
	if err != nil {
		return fmt.Errorf("build mime: %w", err)
	}

	payload, err := json.Marshal(map[string]string{
		"raw": base64.RawURLEncoding.EncodeToString([]byte(mime)),
	})
	if err != nil {
		return fmt.Errorf("marshal send payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.sendURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("gmail send: status %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}

// buildMIME constructs a multipart/alternative message with a plain-text part
// and an HTML part.
func (s *Sender) buildMIME(to, subject, body string) (string, error) {
	var html bytes.Buffer
	err := s.tmpl.Execute(&html, struct {
		Body   string
		AppURL string
	}{Body: body, AppURL: s.appURL})
	if err != nil {
		return "", err
	}

	boundary := "b-" + uuid.NewString()
	plain := body + "\n\n---\nOpen DoIt: " + s.appURL

	lines := []string{
		fmt.Sprintf("From: %s <%s>", s.fromName, s.fromEmail),
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		fmt.Sprintf(`Content-Type: multipart/alternative; boundary="%s"`, boundary),
		"",
		"--" + boundary,
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		plain,
		"",
		"--" + boundary,
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		html.String(),
		"",
		"--" + boundary + "--",
	}
	return strings.Join(lines, "\r\n"), nil
}
