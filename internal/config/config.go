package config

type Config interface {
	EnvConfig
	CorsConfig
	GoogleConfig
	GeminiConfig
	FaceConfig
}

type mainConfig struct {
	EnvVars
	Cors
	Google
	Gemini
	Face
}

func New() Config {
	return mainConfig{}
}
