package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf-backend/internal/domains/user"
	"bookshelf-backend/internal/domains/user/repository"
	"bookshelf-backend/internal/domains/user/service"
	"bookshelf-backend/internal/shared/middleware"
	"bookshelf-backend/pkg/cache"
	"bookshelf-backend/pkg/jwt"
	"bookshelf-backend/pkg/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const clientURL = "http://localhost:5173"

// fakeProvider trả về identity cố định cho code "ok"
type fakeProvider struct {
	identity user.Identity
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/consent?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(ctx context.Context, code string) (*user.Identity, error) {
	if code != "ok" {
		return nil, errors.New("exchange failed")
	}
	id := p.identity
	return &id, nil
}

type fixture struct {
	router   *gin.Engine
	sessions *session.Store
	users    user.Service
	cookie   middleware.CookieConfig
}

func setup(t *testing.T) *fixture {
	t.Helper()

	sessions := session.NewStore(cache.NewMemoryCache(), "test-secret", time.Hour)
	users := service.NewUserService(repository.NewMemoryRepository())
	cookie := middleware.CookieConfig{Name: "bookshelf.sid", MaxAge: time.Hour}

	h := NewAuthHandler(
		&fakeProvider{identity: user.Identity{GoogleID: "g-1", Email: "ada@example.com"}},
		users,
		sessions,
		jwt.NewManager("test-secret", time.Minute),
		cookie,
		clientURL+"/",
	)

	r := gin.New()
	h.RegisterRoutes(r)
	return &fixture{router: r, sessions: sessions, users: users, cookie: cookie}
}

func (f *fixture) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// startLogin gọi /auth/google, trả về state và nonce cookie
func (f *fixture) startLogin(t *testing.T) (string, *http.Cookie) {
	t.Helper()

	w := f.serve(httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	require.Equal(t, http.StatusFound, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	nonce := findCookie(w, StateCookieName)
	require.NotNil(t, nonce)
	assert.True(t, nonce.HttpOnly)
	return state, nonce
}

func TestGoogleLogin_FullFlow(t *testing.T) {
	f := setup(t)
	state, nonce := f.startLogin(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=ok&state="+url.QueryEscape(state), nil)
	req.AddCookie(&http.Cookie{Name: nonce.Name, Value: nonce.Value})
	w := f.serve(req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, clientURL+"/app", w.Header().Get("Location"))

	sid := findCookie(w, "bookshelf.sid")
	require.NotNil(t, sid)
	assert.True(t, sid.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, sid.SameSite)

	data, err := f.sessions.Lookup(context.Background(), sid.Value)
	require.NoError(t, err)

	u, err := f.users.GetProfile(context.Background(), data.UserID)
	require.NoError(t, err)
	assert.Equal(t, "g-1", u.GoogleID)
	assert.Equal(t, "ada@example.com", u.Name, "name falls back to email")
}

func TestGoogleCallback_FailuresRedirectToLogin(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name  string
		build func(state string, nonce *http.Cookie) *http.Request
	}{
		{
			name: "missing nonce cookie",
			build: func(state string, _ *http.Cookie) *http.Request {
				return httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=ok&state="+url.QueryEscape(state), nil)
			},
		},
		{
			name: "tampered state",
			build: func(state string, nonce *http.Cookie) *http.Request {
				req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=ok&state="+url.QueryEscape(state+"x"), nil)
				req.AddCookie(&http.Cookie{Name: nonce.Name, Value: nonce.Value})
				return req
			},
		},
		{
			name: "consent denied",
			build: func(state string, nonce *http.Cookie) *http.Request {
				req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?error=access_denied&state="+url.QueryEscape(state), nil)
				req.AddCookie(&http.Cookie{Name: nonce.Name, Value: nonce.Value})
				return req
			},
		},
		{
			name: "exchange fails",
			build: func(state string, nonce *http.Cookie) *http.Request {
				req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=bad&state="+url.QueryEscape(state), nil)
				req.AddCookie(&http.Cookie{Name: nonce.Name, Value: nonce.Value})
				return req
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, nonce := f.startLogin(t)
			w := f.serve(tt.build(state, nonce))

			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, clientURL+"/login", w.Header().Get("Location"))
			assert.Nil(t, findCookie(w, "bookshelf.sid"))
		})
	}
}

func TestLogout(t *testing.T) {
	f := setup(t)

	token, err := f.sessions.Create(context.Background(), "user-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "bookshelf.sid", Value: token})
	w := f.serve(req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	cleared := findCookie(w, "bookshelf.sid")
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)

	_, err = f.sessions.Lookup(context.Background(), token)
	assert.ErrorIs(t, err, session.ErrNotFound)

	// không có session vẫn ok
	w = f.serve(httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
