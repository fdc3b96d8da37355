package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchBody = `{
	"numFound": 4,
	"docs": [
		{"key": "/works/OL1W", "title": "Dune", "author_name": ["Frank Herbert"], "cover_i": 12345},
		{"title": "Dune Messiah", "author_name": [42], "cover_i": "nope"},
		{"key": "/works/OL3W", "author_name": ["Nobody"], "cover_i": 9},
		{"key": "/works/OL4W", "title": "Children of Dune"}
	]
}`

func newServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		assert.Equal(t, "/search.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearch_MapsDocs(t *testing.T) {
	srv := newServer(t, http.StatusOK, searchBody, nil)
	c := NewClient(Options{BaseURL: srv.URL, CoversURL: "https://covers.test"})

	got, err := c.Search(context.Background(), Query{Title: "dune"})
	require.NoError(t, err)

	assert.Equal(t, []Suggestion{
		{Key: "/works/OL1W", Title: "Dune", Author: "Frank Herbert", CoverURL: "https://covers.test/b/id/12345-L.jpg"},
		{Key: "Dune Messiah____", Title: "Dune Messiah"},
		{Key: "/works/OL4W", Title: "Children of Dune"},
	}, got)
}

func TestSearch_QueryParams(t *testing.T) {
	var seen *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
		_, _ = w.Write([]byte(`{"docs":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})

	got, err := c.Search(context.Background(), Query{Title: "  Dune ", Author: "Herbert"})
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NotNil(t, seen)
	assert.Equal(t, "Dune", seen.URL.Query().Get("title"))
	assert.Equal(t, "Herbert", seen.URL.Query().Get("author"))
	assert.Equal(t, "8", seen.URL.Query().Get("limit"))

	_, err = c.Search(context.Background(), Query{Title: "Dune", Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, "50", seen.URL.Query().Get("limit"))
	assert.Empty(t, seen.URL.Query().Get("author"))
}

func TestCovers(t *testing.T) {
	srv := newServer(t, http.StatusOK, searchBody, nil)
	c := NewClient(Options{BaseURL: srv.URL, CoversURL: "https://covers.test/"})

	got, err := c.Covers(context.Background(), Query{Title: "Dune"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://covers.test/b/id/12345-L.jpg",
		"https://covers.test/b/id/9-L.jpg",
	}, got)
}

func TestSearch_UpstreamError(t *testing.T) {
	srv := newServer(t, http.StatusServiceUnavailable, `oops`, nil)
	c := NewClient(Options{BaseURL: srv.URL})

	_, err := c.Search(context.Background(), Query{Title: "Dune"})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestSearch_RateLimitRespectsContext(t *testing.T) {
	var hits int32
	srv := newServer(t, http.StatusOK, `{"docs":[]}`, &hits)
	c := NewClient(Options{BaseURL: srv.URL, RateEvery: time.Hour, Burst: 1})

	_, err := c.Search(context.Background(), Query{Title: "first"})
	require.NoError(t, err)

	// token đã dùng hết, request thứ hai phải chờ quá deadline
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Search(ctx, Query{Title: "second"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
