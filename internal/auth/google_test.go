package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	sharedauth "jobassist-backend/internal/shared/auth"
	"jobassist-backend/internal/shared/storage/docstore"
	"jobassist-backend/internal/users"
)

func newRouter(svc *GoogleService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestStartNotConfigured(t *testing.T) {
	svc := NewGoogleService(GoogleOptions{}, nil, nil)
	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Contains(t, w.Body.String(), "auth_not_configured")
}

func TestStartRedirectsWithState(t *testing.T) {
	signer, err := sharedauth.NewSigner("secret", "test")
	require.NoError(t, err)
	svc := NewGoogleService(GoogleOptions{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/api/v1/auth/google/callback",
		UIRedirect:   "http://localhost:3000/auth",
	}, signer, nil)

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	require.Equal(t, http.StatusFound, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	assert.True(t, svc.stateStore.consume(state))
	assert.False(t, svc.stateStore.consume(state), "state is single use")
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	svc := NewGoogleService(GoogleOptions{ClientID: "c", ClientSecret: "s", RedirectURL: "r"}, nil, nil)
	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=nope&code=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallbackIssuesTokenAndStoresProfile(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/token":
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "at", "token_type": "Bearer", "expires_in": 3600})
		case "/userinfo":
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "42", "email": "ada@example.com", "name": "Ada Lovelace", "given_name": "Ada"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer provider.Close()

	signer, err := sharedauth.NewSigner("secret", "test")
	require.NoError(t, err)
	userSvc := users.NewService(users.NewDocRepo(docstore.NewMemoryStore()))
	svc := NewGoogleService(GoogleOptions{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/api/v1/auth/google/callback",
		UIRedirect:   "http://localhost:3000/auth?from=google",
	}, signer, userSvc)
	svc.oauthConfig.Endpoint = oauth2.Endpoint{
		AuthURL:   provider.URL + "/auth",
		TokenURL:  provider.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	svc.userInfoURL = provider.URL + "/userinfo"
	svc.stateStore.put("st", time.Now().Add(time.Minute))

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=st&code=abc", nil))
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "google", loc.Query().Get("from"))
	claims, err := signer.Verify(loc.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, "google:42", claims.Sub)
	assert.Equal(t, "ada@example.com", claims.Email)

	stored, err := userSvc.GetByID(context.Background(), "google:42")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", stored.FullName)
	assert.Equal(t, "Ada", stored.GivenName)
}

func TestStateExpires(t *testing.T) {
	store := newStateStore()
	store.put("old", time.Now().Add(-time.Second))
	assert.False(t, store.consume("old"))
}

func TestAppendToken(t *testing.T) {
	got, err := appendToken("https://app.example.com/cb?x=1", "tok")
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/cb?token=tok&x=1", got)

	_, err = appendToken("", "tok")
	assert.Error(t, err)
}
