package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bookshelf-backend/pkg/cache"
	openlibrary "bookshelf-backend/pkg/catalog"
	"bookshelf-backend/pkg/logger"
)

// Searcher là phần của catalog client mà service cần
type Searcher interface {
	Search(ctx context.Context, q openlibrary.Query) ([]openlibrary.Suggestion, error)
}

// Service proxy tới external catalog, cache kết quả thành công
// Mọi lỗi (upstream, timeout, rate limit) đều trả về danh sách rỗng
type Service struct {
	client Searcher
	cache  cache.Cache
	ttl    time.Duration
	log    zerolog.Logger
}

func NewService(client Searcher, c cache.Cache, ttl time.Duration) *Service {
	return &Service{
		client: client,
		cache:  c,
		ttl:    ttl,
		log:    logger.Component("catalog_service"),
	}
}

// cacheKey chuẩn hóa query: trim + lowercase để "Dune" và " dune" dùng chung entry
func cacheKey(q openlibrary.Query) string {
	params := url.Values{}
	params.Set("title", strings.ToLower(strings.TrimSpace(q.Title)))
	params.Set("author", strings.ToLower(strings.TrimSpace(q.Author)))
	params.Set("limit", strconv.Itoa(q.Limit))
	return fmt.Sprintf("catalog:search:%s", params.Encode())
}

// Search - title rỗng không gọi upstream
func (s *Service) Search(ctx context.Context, q openlibrary.Query) []openlibrary.Suggestion {
	if strings.TrimSpace(q.Title) == "" {
		return []openlibrary.Suggestion{}
	}

	// STEP 1: Cache
	key := cacheKey(q)
	var cached []openlibrary.Suggestion
	found, err := s.cache.Get(ctx, key, &cached)
	if err == nil && found {
		return cached
	}
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("catalog cache get failed")
	}

	// STEP 2: Upstream
	results, err := s.client.Search(ctx, q)
	if err != nil {
		s.log.Warn().Err(err).Str("title", q.Title).Msg("catalog search failed, returning empty list")
		return []openlibrary.Suggestion{}
	}
	if results == nil {
		results = []openlibrary.Suggestion{}
	}

	// STEP 3: Cache kết quả thành công
	if err := s.cache.Set(ctx, key, results, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("catalog cache set failed")
	}
	return results
}
