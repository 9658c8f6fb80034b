package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"jobassist-backend/internal/shared/apperr"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	DocStore      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LLMProvider        string
	LLMModel           string
	OpenAIAPIKey       string
	ParserMode         string
	SchemaTemplatePath string

	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string

	LogLevel  string
	LogFormat string
}

const (
	ParserModeAuto      = "auto"
	ParserModeModel     = "model"
	ParserModeHeuristic = "heuristic"
)

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Local env files are a dev convenience; real environment variables win.
	loadEnvFiles(".env", "cmd/.env")

	return Config{
		Port:               getEnv("PORT", "8080"),
		Env:                normalizeEnv(getEnv("ENV", "dev")),
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DocStore:           normalizeDocStore(getEnv("DOCSTORE", "")),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		LLMProvider:        strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		LLMModel:           getEnv("LLM_MODEL", "gpt-4o"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		ParserMode:         normalizeParserMode(getEnv("PARSER_MODE", ParserModeAuto)),
		SchemaTemplatePath: strings.TrimSpace(os.Getenv("SCHEMA_TEMPLATE_PATH")),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
	}
}

// ModelConfigured reports whether a language model client can be built.
func (c Config) ModelConfigured() bool {
	return c.LLMProvider == "openai" && strings.TrimSpace(c.OpenAIAPIKey) != ""
}

// UseModelParser reports whether parsing should go through the language model.
func (c Config) UseModelParser() bool {
	switch c.ParserMode {
	case ParserModeModel:
		return true
	case ParserModeHeuristic:
		return false
	default:
		return c.ModelConfigured()
	}
}

// Validate reports missing credentials and inconsistent settings. Every
// problem found is joined into a single error wrapping apperr.ErrConfiguration.
func (c Config) Validate() error {
	var problems []error
	if c.ParserMode == ParserModeModel && !c.ModelConfigured() {
		problems = append(problems, errors.New("PARSER_MODE=model requires LLM_PROVIDER=openai and OPENAI_API_KEY"))
	}
	if c.Env == "production" && strings.TrimSpace(c.JWTSecret) == "" {
		problems = append(problems, errors.New("JWT_SECRET is required in production"))
	}
	switch c.DocStore {
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			problems = append(problems, errors.New("DOCSTORE=postgres requires DATABASE_URL"))
		}
	case "redis":
		if strings.TrimSpace(c.RedisAddr) == "" {
			problems = append(problems, errors.New("DOCSTORE=redis requires REDIS_ADDR"))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", apperr.ErrConfiguration, errors.Join(problems...))
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

// normalizeDocStore leaves an empty value alone so bootstrap can infer the
// backend from DATABASE_URL / REDIS_ADDR.
func normalizeDocStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg", "postgresql":
		return "postgres"
	case "redis":
		return "redis"
	case "memory", "mem":
		return "memory"
	default:
		return ""
	}
}

func normalizeParserMode(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ParserModeModel, "llm", "openai":
		return ParserModeModel
	case ParserModeHeuristic, "regex", "fallback":
		return ParserModeHeuristic
	default:
		return ParserModeAuto
	}
}
