package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newGoogleStub(t *testing.T, userinfo map[string]string, userinfoStatus int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(userinfoStatus)
		_ = json.NewEncoder(w).Encode(userinfo)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func stubProvider(srv *httptest.Server) *GoogleProvider {
	return NewGoogleProvider("client-id", "client-secret", "http://localhost/auth/google/callback").
		WithEndpoints(oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}, srv.URL+"/userinfo")
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	p := NewGoogleProvider("client-id", "secret", "http://localhost:5174/auth/google/callback")

	u, err := url.Parse(p.AuthCodeURL("signed-state"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "signed-state", q.Get("state"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "http://localhost:5174/auth/google/callback", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "email")
	assert.Contains(t, q.Get("scope"), "profile")
}

func TestGoogleProvider_Exchange(t *testing.T) {
	srv := newGoogleStub(t, map[string]string{
		"sub":     "google-42",
		"email":   "ada@example.com",
		"name":    "Ada Lovelace",
		"picture": "https://example.com/ada.png",
	}, http.StatusOK)

	identity, err := stubProvider(srv).Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "google-42", identity.GoogleID)
	assert.Equal(t, "ada@example.com", identity.Email)
	assert.Equal(t, "Ada Lovelace", identity.Name)
	assert.Equal(t, "https://example.com/ada.png", identity.Picture)
}

func TestGoogleProvider_ExchangeFailures(t *testing.T) {
	t.Run("bad code", func(t *testing.T) {
		srv := newGoogleStub(t, map[string]string{"sub": "x"}, http.StatusOK)
		_, err := stubProvider(srv).Exchange(context.Background(), "bad-code")
		assert.Error(t, err)
	})

	t.Run("userinfo error status", func(t *testing.T) {
		srv := newGoogleStub(t, map[string]string{}, http.StatusInternalServerError)
		_, err := stubProvider(srv).Exchange(context.Background(), "good-code")
		assert.ErrorIs(t, err, ErrIdentity)
	})

	t.Run("missing subject", func(t *testing.T) {
		srv := newGoogleStub(t, map[string]string{"email": "a@b.c"}, http.StatusOK)
		_, err := stubProvider(srv).Exchange(context.Background(), "good-code")
		assert.ErrorIs(t, err, ErrIdentity)
	})
}
