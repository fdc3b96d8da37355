package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// =====================================================
// OPEN LIBRARY SEARCH CLIENT
// =====================================================

const (
	DefaultBaseURL   = "https://openlibrary.org"
	DefaultCoversURL = "https://covers.openlibrary.org"

	// DefaultSuggestLimit / DefaultCoverLimit: số kết quả autocomplete và cover picker
	DefaultSuggestLimit = 8
	DefaultCoverLimit   = 10
	MaxLimit            = 50
)

// ErrUpstream: catalog trả về status không phải 2xx
var ErrUpstream = errors.New("catalog upstream error")

// Suggestion - một kết quả gợi ý sách
type Suggestion struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Author   string `json:"author,omitempty"`
	CoverURL string `json:"coverUrl,omitempty"`
}

// Query - title là bắt buộc, author tùy chọn
type Query struct {
	Title  string
	Author string
	Limit  int
}

// Options cấu hình Client
type Options struct {
	BaseURL   string
	CoversURL string
	Timeout   time.Duration
	// RateEvery: khoảng cách tối thiểu giữa hai request, 0 = không giới hạn
	RateEvery time.Duration
	Burst     int
}

type Client struct {
	baseURL    string
	coversURL  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates new catalog client
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.CoversURL == "" {
		opts.CoversURL = DefaultCoversURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	limit := rate.Inf
	if opts.RateEvery > 0 {
		limit = rate.Every(opts.RateEvery)
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		coversURL:  strings.TrimRight(opts.CoversURL, "/"),
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(limit, opts.Burst),
	}
}

// searchDoc - field trong search.json có kiểu không ổn định, kiểm tra khi map
type searchDoc struct {
	Key        interface{}   `json:"key"`
	Title      interface{}   `json:"title"`
	AuthorName []interface{} `json:"author_name"`
	CoverI     interface{}   `json:"cover_i"`
}

type searchResponse struct {
	Docs []searchDoc `json:"docs"`
}

// Search trả về suggestions, doc không có title bị bỏ
func (c *Client) Search(ctx context.Context, q Query) ([]Suggestion, error) {
	docs, err := c.search(ctx, q, DefaultSuggestLimit)
	if err != nil {
		return nil, err
	}

	out := make([]Suggestion, 0, len(docs))
	for _, d := range docs {
		if s, ok := c.toSuggestion(d); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// Covers trả về cover URL của các doc có cover_i
func (c *Client) Covers(ctx context.Context, q Query) ([]string, error) {
	docs, err := c.search(ctx, q, DefaultCoverLimit)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(docs))
	for _, d := range docs {
		if cover := c.coverURL(d.CoverI); cover != "" {
			out = append(out, cover)
		}
	}
	return out, nil
}

func (c *Client) search(ctx context.Context, q Query, defaultLimit int) ([]searchDoc, error) {
	// Step 1: Build query
	params := url.Values{}
	params.Set("title", strings.TrimSpace(q.Title))
	if author := strings.TrimSpace(q.Author); author != "" {
		params.Set("author", author)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	params.Set("limit", strconv.Itoa(limit))

	// Step 2: Chờ limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("catalog rate limit: %w", err)
	}

	// Step 3: Call API
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	// Step 4: Parse response
	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return body.Docs, nil
}

func (c *Client) toSuggestion(d searchDoc) (Suggestion, bool) {
	title, _ := d.Title.(string)
	if title == "" {
		return Suggestion{}, false
	}

	var author string
	if len(d.AuthorName) > 0 {
		author, _ = d.AuthorName[0].(string)
	}

	cover := c.coverURL(d.CoverI)

	key, _ := d.Key.(string)
	if key == "" {
		key = title + "__" + author + "__" + cover
	}

	return Suggestion{Key: key, Title: title, Author: author, CoverURL: cover}, true
}

// coverURL: {covers}/b/id/{cover_i}-L.jpg, rỗng nếu cover_i không phải số
func (c *Client) coverURL(raw interface{}) string {
	id, ok := raw.(float64)
	if !ok {
		return ""
	}
	return c.coversURL + "/b/id/" + strconv.FormatFloat(id, 'f', -1, 64) + "-L.jpg"
}
