package config

import "time"

type GeminiConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
	GetGeminiBaseURL() string
	GetGeminiCacheTTL() time.Duration
}

type Gemini struct{}

var _ GeminiConfig = Gemini{}

func (Gemini) GetGeminiAPIKey() string {
	return GetEnv("GOOGLE_GEMINI_API_KEY", "")
}

func (Gemini) GetGeminiModel() string {
	return GetEnv("GEMINI_MODEL", "gemini-1.5-flash")
}

func (Gemini) GetGeminiBaseURL() string {
	return GetEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
}

func (Gemini) GetGeminiCacheTTL() time.Duration {
	return 5 * time.Minute
}
