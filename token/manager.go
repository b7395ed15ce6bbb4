package token

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/assistantlabs/go-assistant-server/internal/errors"
)

// defaultExpiresIn is assumed when the provider response carries neither an
// absolute expiry nor an expires_in value.
const defaultExpiresIn = 3600 * time.Second

// Manager owns the refresh lifecycle of token records. It guarantees that a
// caller asking for a usable access token either gets one known to be
// unexpired or an explicit error saying why none could be produced.
type Manager struct {
	oauthCfg   *oauth2.Config
	httpClient *http.Client
	nowFunc    func() time.Time
	log        zerolog.Logger
	flight     singleflight.Group
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithHTTPClient(client *http.Client) ManagerOption {
	return func(m *Manager) {
		m.httpClient = client
	}
}

func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

func New(oauthCfg *oauth2.Config, options ...ManagerOption) *Manager {
	m := &Manager{
		oauthCfg: oauthCfg,
		log:      zerolog.Nop(),
	}

	for _, opt := range options {
		opt(m)
	}

	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	if m.httpClient == nil {
		m.httpClient = http.DefaultClient
	}
	return m
}

// EnsureValid returns a record whose access token is unexpired, refreshing
// it if necessary. An unexpired record with no recorded error is returned
// unchanged without any network call. On a failed refresh the returned
// record keeps its stale token values with LastError set, alongside the
// error itself.
func (m *Manager) EnsureValid(ctx context.Context, rec Record) (Record, error) {
	if !rec.Expired(m.nowFunc()) && rec.LastError == "" {
		return rec, nil
	}
	return m.refresh(ctx, rec)
}

// ForceRefresh refreshes regardless of the recorded expiry. Used by the
// auto-refresh wrapper when a downstream call came back 401 even though the
// record looked fresh.
func (m *Manager) ForceRefresh(ctx context.Context, rec Record) (Record, error) {
	return m.refresh(ctx, rec)
}

// refresh funnels all refresh attempts for the same refresh token through a
// single flight: Google may invalidate the previous refresh token when it
// issues a new one, so two concurrent refreshes must not race. Every waiter
// observes the same resulting record.
func (m *Manager) refresh(ctx context.Context, rec Record) (Record, error) {
	if rec.RefreshToken == "" {
		rec.LastError = apperrors.Kind(apperrors.ErrNoRefreshToken)
		return rec, apperrors.ErrNoRefreshToken
	}

	v, err, _ := m.flight.Do(rec.RefreshToken, func() (interface{}, error) {
		updated, refreshErr := m.refreshOnce(ctx, rec)
		return updated, refreshErr
	})
	if updated, ok := v.(Record); ok {
		return updated, err
	}
	return rec, err
}

// refreshOnce runs the primary refresh and, if that fails, an independent
// fallback exchange against the same endpoint. The fallback is a second
// implementation of the protocol, not a retry: SDK-level refreshes have been
// seen to fail in ways a direct call does not.
func (m *Manager) refreshOnce(ctx context.Context, rec Record) (Record, error) {
	updated, primaryErr := m.primaryRefresh(ctx, rec)
	if primaryErr == nil {
		m.log.Debug().Int64("expiresAt", updated.ExpiresAt).Msg("token refreshed")
		return updated, nil
	}
	m.log.Warn().Err(primaryErr).Msg("primary token refresh failed, attempting direct exchange")

	updated, fallbackErr := m.fallbackRefresh(ctx, rec)
	if fallbackErr == nil {
		m.log.Debug().Int64("expiresAt", updated.ExpiresAt).Msg("token refreshed via direct exchange")
		return updated, nil
	}
	m.log.Error().Err(fallbackErr).Msg("fallback token refresh failed")

	rec.LastError = apperrors.Kind(apperrors.ErrRefreshFailed)
	return rec, errors.Wrapf(apperrors.ErrRefreshFailed, "primary: %v; fallback: %v", primaryErr, fallbackErr)
}

// primaryRefresh exchanges the refresh token through the oauth2 library's
// token source.
func (m *Manager) primaryRefresh(ctx context.Context, rec Record) (Record, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	src := m.oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: rec.RefreshToken})

	tok, err := src.Token()
	if err != nil {
		return rec, errors.Wrap(err, "Manager.primaryRefresh Token")
	}
	if tok.AccessToken == "" {
		return rec, errors.Wrap(apperrors.ErrBadResponse, "Manager.primaryRefresh empty access token")
	}

	expiresAt := tok.Expiry.UnixMilli()
	if tok.Expiry.IsZero() {
		expiresAt = m.nowFunc().Add(defaultExpiresIn).UnixMilli()
	}
	return m.apply(rec, tok.AccessToken, expiresAt, tok.RefreshToken), nil
}

// fallbackRefresh posts the grant parameters straight to the token endpoint
// and parses the raw JSON response.
func (m *Manager) fallbackRefresh(ctx context.Context, rec Record) (Record, error) {
	form := url.Values{
		"client_id":     {m.oauthCfg.ClientID},
		"client_secret": {m.oauthCfg.ClientSecret},
		"refresh_token": {rec.RefreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.oauthCfg.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return rec, errors.Wrap(err, "Manager.fallbackRefresh NewRequest")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return rec, errors.Wrap(err, "Manager.fallbackRefresh Do")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return rec, errors.Wrap(err, "Manager.fallbackRefresh ReadAll")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return rec, errors.Errorf("Manager.fallbackRefresh status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		AccessToken  string `json:"access_token"`
		ExpiresIn    int64  `json:"expires_in"`
		ExpiryDate   int64  `json:"expiry_date"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return rec, errors.Wrap(apperrors.ErrBadResponse, err.Error())
	}
	if parsed.AccessToken == "" {
		return rec, errors.Wrap(apperrors.ErrBadResponse, "Manager.fallbackRefresh empty access token")
	}

	expiresAt := parsed.ExpiryDate
	if expiresAt == 0 {
		expiresIn := time.Duration(parsed.ExpiresIn) * time.Second
		if expiresIn == 0 {
			expiresIn = defaultExpiresIn
		}
		expiresAt = m.nowFunc().Add(expiresIn).UnixMilli()
	}
	return m.apply(rec, parsed.AccessToken, expiresAt, parsed.RefreshToken), nil
}

// apply produces the post-refresh record: new access token and expiry, the
// refresh token replaced only when the provider issued a new one, LastError
// cleared.
func (m *Manager) apply(rec Record, accessToken string, expiresAt int64, newRefreshToken string) Record {
	rec.AccessToken = accessToken
	rec.ExpiresAt = expiresAt
	if newRefreshToken != "" {
		rec.RefreshToken = newRefreshToken
	}
	rec.LastError = ""
	return rec
}
