package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	LLMProvider       string `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMAPIKey         string `env:"LLM_API_KEY"`
	LLMBaseURL        string `env:"LLM_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	LLMModel          string `env:"LLM_MODEL" envDefault:"llama-3.3-70b-versatile"`
	LLMFallbackModel  string `env:"LLM_FALLBACK_MODEL" envDefault:"llama-3.1-8b-instant"`
	LLMTimeoutSeconds int    `env:"LLM_TIMEOUT_SECONDS" envDefault:"60"`
	GeminiAPIKey      string `env:"GEMINI_API_KEY"`
	GeminiModel       string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`

	AgentTimeoutSeconds int `env:"AGENT_TIMEOUT_SECONDS" envDefault:"30"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisPassword           string `env:"REDIS_PASSWORD"`
	RedisDB                 int    `env:"REDIS_DB" envDefault:"0"`
	InterviewLockTTLSeconds int    `env:"INTERVIEW_LOCK_TTL_SECONDS" envDefault:"120"`
	StatsCacheTTLSeconds    int    `env:"STATS_CACHE_TTL_SECONDS" envDefault:"60"`

	JWTSecret          string   `env:"JWT_SECRET"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	VoiceServiceURL     string `env:"VOICE_SERVICE_URL"`
	VoiceEnabled        bool   `env:"VOICE_ENABLED" envDefault:"false"`
	VoiceTimeoutSeconds int    `env:"VOICE_TIMEOUT_SECONDS" envDefault:"30"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	return &cfg, nil
}

func (c *Config) AgentTimeout() time.Duration {
	return seconds(c.AgentTimeoutSeconds, 30)
}

func (c *Config) LLMTimeout() time.Duration {
	return seconds(c.LLMTimeoutSeconds, 60)
}

func (c *Config) InterviewLockTTL() time.Duration {
	return seconds(c.InterviewLockTTLSeconds, 120)
}

func (c *Config) StatsCacheTTL() time.Duration {
	return seconds(c.StatsCacheTTLSeconds, 60)
}

func (c *Config) VoiceTimeout() time.Duration {
	return seconds(c.VoiceTimeoutSeconds, 30)
}

func seconds(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}
