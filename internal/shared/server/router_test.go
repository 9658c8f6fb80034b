package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobassist-backend/internal/generation"
	"jobassist-backend/internal/llm"
	"jobassist-backend/internal/resumes"
	"jobassist-backend/internal/shared/auth"
	"jobassist-backend/internal/shared/config"
	"jobassist-backend/internal/shared/server/middleware"
	"jobassist-backend/internal/shared/storage/docstore"
)

func newTestRouter(t *testing.T, limits map[string]middleware.RateLimitRule) *testRouter {
	t.Helper()
	signer, err := auth.NewSigner("router-secret", "test")
	require.NoError(t, err)
	store := docstore.NewMemoryStore()
	genSvc := generation.NewService(llm.PlaceholderClient{}, resumes.NewRecordStore(store, nil), store, nil)
	return &testRouter{
		signer: signer,
		handler: NewRouter(RouterDeps{
			Config:            config.Config{CORSAllowOrigin: []string{"http://localhost:5173"}},
			Verifier:          signer,
			RateLimits:        limits,
			GenerationHandler: generation.NewHandler(genSvc),
		}),
	}
}

type testRouter struct {
	signer  *auth.Signer
	handler http.Handler
}

func (r *testRouter) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.handler.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, nil)
	w := r.do(http.MethodGet, "/api/v1/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestMetricsExposed(t *testing.T) {
	r := newTestRouter(t, nil)
	w := r.do(http.MethodGet, "/api/v1/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "parse_started_total")
	assert.Contains(t, w.Body.String(), "generation_total")
}

func TestInvalidTokenRejected(t *testing.T) {
	r := newTestRouter(t, nil)
	w := r.do(http.MethodGet, "/api/v1/health", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestModelRoutesShareLLMBucket(t *testing.T) {
	r := newTestRouter(t, map[string]middleware.RateLimitRule{
		middleware.LLMGroup: {Rate: 0.001, Burst: 1},
	})
	token, err := r.signer.Sign(auth.Claims{Sub: "google:1", Email: "ada@example.com"})
	require.NoError(t, err)

	first := r.do(http.MethodPost, "/api/v1/documents/generate", `{"jobDescription":"Go engineer"}`, token)
	assert.NotEqual(t, http.StatusTooManyRequests, first.Code)

	second := r.do(http.MethodPost, "/api/v1/documents/apply", `{"title":"Go engineer","company":"Acme"}`, token)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	// Non-model routes are not limited by the LLM bucket.
	health := r.do(http.MethodGet, "/api/v1/health", "", token)
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestAddr(t *testing.T) {
	assert.Equal(t, ":8080", Addr(""))
	assert.Equal(t, ":9000", Addr("9000"))
	assert.Equal(t, ":9000", Addr(":9000"))
}
