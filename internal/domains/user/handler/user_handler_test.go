package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf-backend/internal/domains/user"
	"bookshelf-backend/internal/domains/user/repository"
	"bookshelf-backend/internal/domains/user/service"
	"bookshelf-backend/internal/shared/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	router *gin.Engine
	svc    user.Service
	userID string
}

func setup(t *testing.T) *fixture {
	t.Helper()

	svc := service.NewUserService(repository.NewMemoryRepository())
	u, err := svc.Login(context.Background(), user.Identity{GoogleID: "g-1", Email: "ada@example.com", Name: "Ada"})
	require.NoError(t, err)

	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set(middleware.ContextKeyUserID, id)
		}
		c.Next()
	})
	NewUserHandler(svc).RegisterRoutes(api)

	return &fixture{router: r, svc: svc, userID: u.ID}
}

func (f *fixture) do(method, path, uid, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set("X-Test-User", uid)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestGetMe(t *testing.T) {
	f := setup(t)

	w := f.do(http.MethodGet, "/api/me", f.userID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"id": "`+f.userID+`",
		"email": "ada@example.com",
		"name": "Ada",
		"picture": null,
		"preferredLocale": "en",
		"genres": [],
		"booksSorting": [{"id": "index", "desc": false}]
	}`, w.Body.String())
}

func TestGetMe_UnknownUserIsUnauthorized(t *testing.T) {
	f := setup(t)

	w := f.do(http.MethodGet, "/api/me", "ghost", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", errCode(t, w))

	w = f.do(http.MethodGet, "/api/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdatePreferences(t *testing.T) {
	f := setup(t)

	w := f.do(http.MethodPatch, "/api/me/preferences", f.userID,
		`{"preferredLocale":"fr","booksSorting":[{"id":"title","desc":1},{"nope":true},{"id":"rating"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"id": "`+f.userID+`",
		"preferredLocale": "fr",
		"booksSorting": [{"id":"title","desc":true},{"id":"rating","desc":false}]
	}`, w.Body.String())

	// body rỗng → giá trị hiện tại
	w = f.do(http.MethodPatch, "/api/me/preferences", f.userID, `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"preferredLocale":"fr"`)

	// sorting rỗng được lưu
	w = f.do(http.MethodPatch, "/api/me/preferences", f.userID, `{"booksSorting":[]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"booksSorting":[]`)
}

func TestUpdatePreferences_Validation(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"unknown locale", `{"preferredLocale":"de"}`, "invalid_preferredLocale"},
		{"null locale", `{"preferredLocale":null}`, "invalid_preferredLocale"},
		{"sorting not array", `{"booksSorting":{"id":"title"}}`, "invalid_booksSorting"},
		{"non-object body", `"fr"`, "invalid_body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPatch, "/api/me/preferences", f.userID, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, errCode(t, w))
		})
	}

	// không có gì được ghi
	u, err := f.svc.GetProfile(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, user.LocaleEN, u.PreferredLocale)
}

func TestUpdateGenres(t *testing.T) {
	f := setup(t)

	w := f.do(http.MethodPatch, "/api/me/genres", f.userID, `{"genres":[" Fantasy ","Fantasy",42,"","Sci-Fi"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+f.userID+`","genres":["Fantasy","Sci-Fi"]}`, w.Body.String())

	w = f.do(http.MethodPatch, "/api/me/genres", f.userID, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_genres", errCode(t, w))

	w = f.do(http.MethodPatch, "/api/me/genres", f.userID, `{"genres":"Fantasy"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_genres", errCode(t, w))
}
