// Package google is a minimal REST client for the Gmail and Calendar
// endpoints this server proxies. It is intentionally small: each method
// mirrors one REST call, authenticated per request with a bearer access
// token supplied by the token lifecycle manager.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	apperrors "github.com/assistantlabs/go-assistant-server/internal/errors"
)

const (
	DefaultGmailBaseURL    = "https://gmail.googleapis.com/gmail/v1"
	DefaultCalendarBaseURL = "https://www.googleapis.com/calendar/v3"
)

// Client is safe for concurrent use. The access token is passed per call
// rather than held, because the auto-refresh wrapper may swap it between
// attempts.
type Client struct {
	httpClient      *http.Client
	gmailBaseURL    string
	calendarBaseURL string
	log             zerolog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithBaseURLs(gmailBaseURL, calendarBaseURL string) ClientOption {
	return func(c *Client) {
		if gmailBaseURL != "" {
			c.gmailBaseURL = strings.TrimRight(gmailBaseURL, "/")
		}
		if calendarBaseURL != "" {
			c.calendarBaseURL = strings.TrimRight(calendarBaseURL, "/")
		}
	}
}

func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

func NewClient(options ...ClientOption) *Client {
	c := &Client{
		gmailBaseURL:    DefaultGmailBaseURL,
		calendarBaseURL: DefaultCalendarBaseURL,
		log:             zerolog.Nop(),
	}

	for _, opt := range options {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return c
}

// do marshals the body, issues the request with the bearer token and, if v
// is non-nil, decodes the JSON response into it. A 401 response maps to
// ErrUnauthorized so the caller's auto-refresh wrapper can react.
func (c *Client) do(ctx context.Context, accessToken, method, rawURL string, body, v interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "Client.do Marshal")
		}
		bodyReader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return errors.Wrap(err, "Client.do NewRequest")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "Client.do Do")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return errors.Wrap(err, "Client.do ReadAll")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.log.Debug().Str("url", rawURL).Msg("google api rejected the access token")
		return errors.Wrapf(apperrors.ErrUnauthorized, "%s %s", method, rawURL)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return errors.Errorf("Client.do %s %s: status %d: %s", method, rawURL, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if v == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, v); err != nil {
		return errors.Wrap(apperrors.ErrBadResponse, err.Error())
	}
	return nil
}
