package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bookshelf-backend/internal/domains/book"
	"bookshelf-backend/internal/domains/user"
	openlibrary "bookshelf-backend/pkg/catalog"
)

// =====================================================
// BOOKSHELF REST CLIENT
// =====================================================
// Client gọi REST API với cookie session (cookie jar giữ cookie giữa các request)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// APIError - lỗi có envelope {success:false,error:{code,message}}
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// Is cho phép errors.Is(err, ErrNotFound) / ErrUnauthorized
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClient creates new API client, timeout <= 0 dùng 30s
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
	}, nil
}

// SetSessionCookie đặt cookie session (vd. lấy từ callback đăng nhập)
func (c *Client) SetSessionCookie(name, value string) {
	c.httpClient.Jar.SetCookies(c.baseURL, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
}

// =====================================================
// BOOKS
// =====================================================

func (c *Client) ListBooks(ctx context.Context) ([]book.Book, error) {
	var books []book.Book
	if err := c.do(ctx, http.MethodGet, "/api/books", nil, &books); err != nil {
		return nil, err
	}
	if books == nil {
		books = []book.Book{}
	}
	return books, nil
}

func (c *Client) CreateBook(ctx context.Context, fields map[string]interface{}) (*book.Book, error) {
	var b book.Book
	if err := c.do(ctx, http.MethodPost, "/api/books", fields, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) PatchBook(ctx context.Context, id string, fields map[string]interface{}) (*book.Book, error) {
	var b book.Book
	if err := c.do(ctx, http.MethodPatch, "/api/books/"+url.PathEscape(id), fields, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) DeleteBook(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/books/"+url.PathEscape(id), nil, nil)
}

// =====================================================
// PROFILE
// =====================================================

func (c *Client) Me(ctx context.Context) (*user.MeResponse, error) {
	var me user.MeResponse
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// UpdatePreferences - nil locale / nil sorting = không gửi field đó
func (c *Client) UpdatePreferences(ctx context.Context, locale *user.Locale, sorting []user.SortClause) (*user.PreferencesResponse, error) {
	body := map[string]interface{}{}
	if locale != nil {
		body["preferredLocale"] = *locale
	}
	if sorting != nil {
		body["booksSorting"] = sorting
	}

	var resp user.PreferencesResponse
	if err := c.do(ctx, http.MethodPatch, "/api/me/preferences", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateGenres(ctx context.Context, genres []string) (*user.GenresResponse, error) {
	if genres == nil {
		genres = []string{}
	}
	var resp user.GenresResponse
	if err := c.do(ctx, http.MethodPatch, "/api/me/genres", map[string]interface{}{"genres": genres}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// =====================================================
// CATALOG
// =====================================================

func (c *Client) SearchCatalog(ctx context.Context, q openlibrary.Query) ([]openlibrary.Suggestion, error) {
	params := url.Values{}
	params.Set("title", q.Title)
	if q.Author != "" {
		params.Set("author", q.Author)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	var results []openlibrary.Suggestion
	if err := c.do(ctx, http.MethodGet, "/api/catalog/search?"+params.Encode(), nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// =====================================================
// TRANSPORT
// =====================================================

type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	// Step 1: Build request
	var reader io.Reader
	if body != nil {
		bodyJSON, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyJSON)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Step 2: Call API
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Step 3: Error envelope
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var env errorEnvelope
		if json.Unmarshal(bodyBytes, &env) == nil && env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	// Step 4: Decode bare record
	if out == nil || len(bodyBytes) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
