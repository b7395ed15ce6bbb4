package token

import (
	"context"

	"github.com/pkg/errors"

	apperrors "github.com/assistantlabs/go-assistant-server/internal/errors"
)

// WithAutoRefresh calls an API function with the record's access token and,
// if the call fails authentication, performs exactly one forced refresh and
// one retry. A second 401, or a failed forced refresh, surfaces
// ErrAuthExpired with no further attempts: the retry is bounded to one so a
// provider that keeps rejecting "refreshed" tokens cannot cause a loop.
//
// The (possibly updated) record is always returned so the caller can write
// it back to the session.
func WithAutoRefresh[T any](ctx context.Context, m *Manager, rec Record, call func(ctx context.Context, accessToken string) (T, error)) (T, Record, error) {
	var zero T

	out, err := call(ctx, rec.AccessToken)
	if err == nil || !apperrors.Is(err, apperrors.ErrUnauthorized) {
		return out, rec, err
	}

	refreshed, refreshErr := m.ForceRefresh(ctx, rec)
	if refreshErr != nil {
		return zero, refreshed, errors.Wrapf(apperrors.ErrAuthExpired, "forced refresh: %v", refreshErr)
	}

	out, err = call(ctx, refreshed.AccessToken)
	if err != nil && apperrors.Is(err, apperrors.ErrUnauthorized) {
		return zero, refreshed, errors.Wrap(apperrors.ErrAuthExpired, "retried call still unauthorized")
	}
	return out, refreshed, err
}
