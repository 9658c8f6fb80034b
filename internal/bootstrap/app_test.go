package bootstrap

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobassist-backend/internal/parser"
	"jobassist-backend/internal/shared/apperr"
	"jobassist-backend/internal/shared/config"
	"jobassist-backend/internal/shared/storage/docstore"
)

func devConfig() config.Config {
	return config.Config{
		Env:             "dev",
		DocStore:        "memory",
		LLMProvider:     "openai",
		ParserMode:      config.ParserModeAuto,
		CORSAllowOrigin: []string{"http://localhost:5173"},
	}
}

func TestBuildMemoryHeuristic(t *testing.T) {
	app, err := Build(devConfig())
	require.NoError(t, err)
	defer app.Close()

	_, isMemory := app.Store.(*docstore.MemoryStore)
	assert.True(t, isMemory)
	assert.Equal(t, parser.ModeHeuristic, app.ResumeService.Mode)
	require.NotNil(t, app.Router)

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBuildSelectsModelParserWhenKeyPresent(t *testing.T) {
	cfg := devConfig()
	cfg.OpenAIAPIKey = "sk-test"
	cfg.LLMModel = "gpt-4o"
	app, err := Build(cfg)
	require.NoError(t, err)
	defer app.Close()
	assert.Equal(t, parser.ModeModel, app.ResumeService.Mode)
}

func TestBuildRejectsMissingCredential(t *testing.T) {
	cfg := devConfig()
	cfg.ParserMode = config.ParserModeModel
	_, err := Build(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConfiguration))
}

func TestBuildRejectsMissingTemplate(t *testing.T) {
	cfg := devConfig()
	cfg.SchemaTemplatePath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := Build(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConfiguration))
}

func TestStoreNameInference(t *testing.T) {
	assert.Equal(t, "memory", storeName(config.Config{}))
	assert.Equal(t, "postgres", storeName(config.Config{DatabaseURL: "postgres://x"}))
	assert.Equal(t, "redis", storeName(config.Config{RedisAddr: "localhost:6379"}))
	assert.Equal(t, "redis", storeName(config.Config{DocStore: "redis", DatabaseURL: "postgres://x"}))
}
