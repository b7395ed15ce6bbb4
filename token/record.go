package token

import "time"

// Record holds the access/refresh token pair for one signed-in session.
// The JSON shape is what gets stored in the session cookie.
type Record struct {
	// AccessToken is the opaque bearer credential for Google's APIs.
	AccessToken string `json:"accessToken,omitempty"`

	// RefreshToken is the long-lived credential used to mint new access
	// tokens. Empty if Google never issued one (consent previously granted
	// without offline access).
	RefreshToken string `json:"refreshToken,omitempty"`

	// ExpiresAt is the instant, in milliseconds since the epoch, after which
	// AccessToken must be treated as invalid. Zero means already expired.
	ExpiresAt int64 `json:"accessTokenExpires,omitempty"`

	// LastError is the kind of the most recent refresh failure, cleared on
	// success. While set, AccessToken holds the last known (stale) value and
	// must not be trusted.
	LastError string `json:"error,omitempty"`
}

// Expired reports whether the access token must be treated as invalid at
// the given instant. A zero ExpiresAt always counts as expired.
func (r Record) Expired(now time.Time) bool {
	return r.ExpiresAt == 0 || r.ExpiresAt <= now.UnixMilli()
}

// Usable reports whether the record's access token can back a new API call.
func (r Record) Usable(now time.Time) bool {
	return r.AccessToken != "" && r.LastError == "" && !r.Expired(now)
}
