package token_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	apperrors "github.com/assistantlabs/go-assistant-server/internal/errors"
	"github.com/assistantlabs/go-assistant-server/token"
)

const (
	testClientID     = "test-client-id"
	testClientSecret = "test-client-secret"
	testRefreshToken = "refresh-token-1"
	staleAccessToken = "stale-access-token"
)

// tokenEndpoint is a scripted stand-in for the provider's token endpoint.
// Each incoming request is answered by the next scripted response.
type tokenEndpoint struct {
	server *httptest.Server
	calls  atomic.Int64

	mu        sync.Mutex
	responses []func(w http.ResponseWriter)
	delay     time.Duration
}

func newTokenEndpoint(t *testing.T) *tokenEndpoint {
	t.Helper()

	e := &tokenEndpoint{}
	e.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.calls.Add(1)
		if e.delay > 0 {
			time.Sleep(e.delay)
		}

		e.mu.Lock()
		var respond func(w http.ResponseWriter)
		if len(e.responses) > 0 {
			respond = e.responses[0]
			e.responses = e.responses[1:]
		}
		e.mu.Unlock()

		if respond == nil {
			http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
			return
		}
		respond(w)
	}))
	t.Cleanup(e.server.Close)
	return e
}

func (e *tokenEndpoint) respondToken(accessToken string, expiresIn int, refreshToken string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.responses = append(e.responses, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		body := fmt.Sprintf(`{"access_token":%q,"token_type":"Bearer","expires_in":%d`, accessToken, expiresIn)
		if refreshToken != "" {
			body += fmt.Sprintf(`,"refresh_token":%q`, refreshToken)
		}
		body += "}"
		_, _ = w.Write([]byte(body))
	})
}

func (e *tokenEndpoint) respondError(status int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.responses = append(e.responses, func(w http.ResponseWriter) {
		http.Error(w, `{"error":"invalid_grant"}`, status)
	})
}

func newTestManager(e *tokenEndpoint, options ...token.ManagerOption) *token.Manager {
	cfg := &oauth2.Config{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: e.server.URL + "/token"},
	}
	return token.New(cfg, options...)
}

func expiredRecord() token.Record {
	return token.Record{
		AccessToken:  staleAccessToken,
		RefreshToken: testRefreshToken,
		ExpiresAt:    time.Now().Add(-time.Minute).UnixMilli(),
	}
}

func TestEnsureValidCacheHit(t *testing.T) {
	endpoint := newTokenEndpoint(t)
	manager := newTestManager(endpoint)

	rec := token.Record{
		AccessToken:  "fresh-access-token",
		RefreshToken: testRefreshToken,
		ExpiresAt:    time.Now().Add(time.Hour).UnixMilli(),
	}

	got, err := manager.EnsureValid(context.Background(), rec)
	require.NoError(t, err)
	require.Equal(t, rec, got, "unexpired record must be returned unchanged")
	require.EqualValues(t, 0, endpoint.calls.Load(), "cache hit must not reach the network")
}

func TestEnsureValidNoRefreshToken(t *testing.T) {
	endpoint := newTokenEndpoint(t)
	manager := newTestManager(endpoint)

	rec := token.Record{AccessToken: staleAccessToken}

	got, err := manager.EnsureValid(context.Background(), rec)
	require.ErrorIs(t, err, apperrors.ErrNoRefreshToken)
	require.Equal(t, staleAccessToken, got.AccessToken)
	require.EqualValues(t, 0, endpoint.calls.Load())
}

func TestEnsureValidPrimaryRefresh(t *testing.T) {
	endpoint := newTokenEndpoint(t)
	endpoint.respondToken("new-access-token", 3600, "")
	manager := newTestManager(endpoint)

	got, err := manager.EnsureValid(context.Background(), expiredRecord())
	require.NoError(t, err)
	require.Equal(t, "new-access-token", got.AccessToken)
	require.Equal(t, testRefreshToken, got.RefreshToken, "refresh token kept when none reissued")
	require.Greater(t, got.ExpiresAt, time.Now().UnixMilli())
	require.Empty(t, got.LastError)
	require.EqualValues(t, 1, endpoint.calls.Load())
}

func TestEnsureValidReplacesReissuedRefreshToken(t *testing.T) {
	endpoint := newTokenEndpoint(t)
	endpoint.respondToken("new-access-token", 3600, "rotated-refresh-token")
	manager := newTestManager(endpoint)

	got, err := manager.EnsureValid(context.Background(), expiredRecord())
	require.NoError(t, err)
	require.Equal(t, "rotated-refresh-token", got.RefreshToken)
}

func TestEnsureValidFallbackAfterPrimaryFailure(t *testing.T) {
	endpoint := newTokenEndpoint(t)
	endpoint.respondError(http.StatusInternalServerError) // primary
	endpoint.respondToken("fallback-access-token", 1800, "")
	manager := newTestManager(endpoint)

	got, err := manager.EnsureValid(context.Background(), expiredRecord())
	require.NoError(t, err)
	require.Equal(t, "fallback-access-token", got.AccessToken)
	require.Greater(t, got.ExpiresAt, time.Now().UnixMilli())
	require.Empty(t, got.LastError)
	require.EqualValues(t, 2, endpoint.calls.Load(), "primary then fallback")
}

func TestEnsureValidBothStrategiesFail(t *testing.T) {
	endpoint := newTokenEndpoint(t)
	endpoint.respondError(http.StatusBadRequest) // primary
	endpoint.respondError(http.StatusBadRequest) // fallback
	manager := newTestManager(endpoint)

	rec := expiredRecord()
	got, err := manager.EnsureValid(context.Background(), rec)
	require.ErrorIs(t, err, apperrors.ErrRefreshFailed)
	require.Equal(t, rec.AccessToken, got.AccessToken, "stale token values retained")
	require.Equal(t, rec.ExpiresAt, got.ExpiresAt)
	require.Equal(t, "refresh_failed", got.LastError)
	require.EqualValues(t, 2, endpoint.calls.Load())
}

func TestEnsureValidFailedStateIsRetryable(t *testing.T) {
	endpoint := newTokenEndpoint(t)
	endpoint.respondError(http.StatusBadRequest)
	endpoint.respondError(http.StatusBadRequest)
	endpoint.respondToken("recovered-access-token", 3600, "")
	manager := newTestManager(endpoint)

	failed, err := manager.EnsureValid(context.Background(), expiredRecord())
	require.ErrorIs(t, err, apperrors.ErrRefreshFailed)

	got, err := manager.EnsureValid(context.Background(), failed)
	require.NoError(t, err)
	require.Equal(t, "recovered-access-token", got.AccessToken)
	require.Empty(t, got.LastError)
}

func TestEnsureValidConcurrentCallersShareOneRefresh(t *testing.T) {
	endpoint := newTokenEndpoint(t)
	endpoint.delay = 100 * time.Millisecond
	endpoint.respondToken("shared-access-token", 3600, "")
	manager := newTestManager(endpoint)

	rec := expiredRecord()

	const callers = 8
	results := make([]token.Record, callers)
	errs := make([]error, callers)

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			results[i], errs[i] = manager.EnsureValid(context.Background(), rec)
		}(i)
	}
	start.Done()
	done.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "shared-access-token", results[i].AccessToken, "all callers observe the same token")
	}
	require.EqualValues(t, 1, endpoint.calls.Load(), "exactly one network refresh for concurrent callers")
}
