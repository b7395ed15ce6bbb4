package config

type GoogleConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleScopes() []string
	GetGoogleTokenURL() string
	GetGmailBaseURL() string
	GetCalendarBaseURL() string
}

type Google struct{}

var _ GoogleConfig = Google{}

func (Google) GetGoogleClientID() string {
	return GetEnv("GOOGLE_CLIENT_ID", "")
}

func (Google) GetGoogleClientSecret() string {
	return GetEnv("GOOGLE_CLIENT_SECRET", "")
}

func (Google) GetGoogleScopes() []string {
	return []string{
		"openid",
		"email",
		"profile",
		"https://www.googleapis.com/auth/gmail.readonly",
		"https://www.googleapis.com/auth/gmail.send",
		"https://www.googleapis.com/auth/calendar.events",
	}
}

// GetGoogleTokenURL allows overriding Google's token endpoint, used by the
// fallback refresh path. Empty means the standard endpoint.
func (Google) GetGoogleTokenURL() string {
	return GetEnv("GOOGLE_TOKEN_URL", "")
}

func (Google) GetGmailBaseURL() string {
	return GetEnv("GMAIL_BASE_URL", "https://gmail.googleapis.com/gmail/v1")
}

func (Google) GetCalendarBaseURL() string {
	return GetEnv("CALENDAR_BASE_URL", "https://www.googleapis.com/calendar/v3")
}
