package bookcache

import (
	"context"
	"strings"
	"sync"
	"time"

	openlibrary "bookshelf-backend/pkg/catalog"
	"bookshelf-backend/pkg/debounce"
)

// =====================================================
// SUPERSEDING CATALOG LOOKUPS
// =====================================================
// Mỗi input mới (hoặc blur) thay thế mọi lookup trước đó: context của chúng
// bị cancel và kết quả bị bỏ kể cả khi về muộn.

const DefaultSuggestDelay = time.Second

// LookupFunc - apiclient.Client.SearchCatalog hoặc catalog.Client.Search
type LookupFunc func(ctx context.Context, q openlibrary.Query) ([]openlibrary.Suggestion, error)

type Suggester struct {
	lookup    LookupFunc
	limit     int
	debouncer *debounce.Debouncer
	onChange  func([]openlibrary.Suggestion)

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	results []openlibrary.Suggestion
	shown   uint64 // seq của lookup tạo ra results

	// deliverMu giữ thứ tự onChange: lần gọi cuối luôn là kết quả hiện tại
	deliverMu sync.Mutex
}

// NewSuggester - delay <= 0 dùng DefaultSuggestDelay, onChange có thể nil.
// onChange không được gọi ngược lại Suggester một cách đồng bộ.
func NewSuggester(lookup LookupFunc, delay time.Duration, limit int, onChange func([]openlibrary.Suggestion)) *Suggester {
	if delay <= 0 {
		delay = DefaultSuggestDelay
	}
	if limit <= 0 {
		limit = openlibrary.DefaultSuggestLimit
	}
	return &Suggester{
		lookup:    lookup,
		limit:     limit,
		debouncer: debounce.New(delay),
		onChange:  onChange,
		results:   []openlibrary.Suggestion{},
	}
}

// Input - user gõ: lookup sau khoảng lặng
func (s *Suggester) Input(title, author string) {
	seq, ok := s.supersede(title)
	if !ok {
		return
	}
	q := s.query(title, author)
	s.debouncer.Trigger(func() { s.run(seq, q) })
}

// SearchNow - lookup ngay, không chờ debounce (vd. mở cover picker)
func (s *Suggester) SearchNow(title, author string) {
	seq, ok := s.supersede(title)
	if !ok {
		return
	}
	s.debouncer.Cancel()
	q := s.query(title, author)
	go s.run(seq, q)
}

// Blur - rời ô input hoặc đã chọn suggestion: lookup đang chờ/đang chạy bị bỏ,
// suggestions hiện tại giữ nguyên
func (s *Suggester) Blur() {
	s.Close()
}

// Results - suggestions hiện tại
func (s *Suggester) Results() []openlibrary.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]openlibrary.Suggestion{}, s.results...)
}

// Close bỏ mọi lookup đang chờ hoặc đang chạy
func (s *Suggester) Close() {
	s.debouncer.Cancel()
	s.mu.Lock()
	s.seq++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
}

// supersede tăng sequence và cancel lookup đang chạy.
// Title rỗng: xóa suggestions, không lookup (ok = false).
func (s *Suggester) supersede(title string) (uint64, bool) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if strings.TrimSpace(title) != "" {
		s.mu.Unlock()
		return seq, true
	}

	s.results = []openlibrary.Suggestion{}
	s.shown = seq
	s.mu.Unlock()

	s.debouncer.Cancel()
	s.deliver(seq, []openlibrary.Suggestion{})
	return seq, false
}

func (s *Suggester) query(title, author string) openlibrary.Query {
	return openlibrary.Query{
		Title:  strings.TrimSpace(title),
		Author: strings.TrimSpace(author),
		Limit:  s.limit,
	}
}

func (s *Suggester) run(seq uint64, q openlibrary.Query) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return
	}
	s.cancel = cancel
	s.mu.Unlock()

	results, err := s.lookup(ctx, q)
	if err != nil || results == nil {
		results = []openlibrary.Suggestion{}
	}

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return
	}
	s.cancel = nil
	s.results = results
	s.shown = seq
	s.mu.Unlock()

	s.deliver(seq, append([]openlibrary.Suggestion{}, results...))
}

// deliver gọi onChange nếu results hiện tại vẫn là của seq
func (s *Suggester) deliver(seq uint64, results []openlibrary.Suggestion) {
	if s.onChange == nil {
		return
	}

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	current := seq == s.shown
	s.mu.Unlock()
	if current {
		s.onChange(results)
	}
}

// =====================================================
// COVER FINDER
// =====================================================

// CoverFinder - cùng cơ chế với Suggester, chỉ giữ cover URL
type CoverFinder struct {
	s *Suggester
}

func NewCoverFinder(lookup LookupFunc, delay time.Duration, onChange func([]string)) *CoverFinder {
	withCovers := func(ctx context.Context, q openlibrary.Query) ([]openlibrary.Suggestion, error) {
		results, err := lookup(ctx, q)
		if err != nil {
			return nil, err
		}
		out := make([]openlibrary.Suggestion, 0, len(results))
		for _, r := range results {
			if r.CoverURL != "" {
				out = append(out, r)
			}
		}
		return out, nil
	}

	var notify func([]openlibrary.Suggestion)
	if onChange != nil {
		notify = func(results []openlibrary.Suggestion) { onChange(coverURLs(results)) }
	}
	return &CoverFinder{s: NewSuggester(withCovers, delay, openlibrary.DefaultCoverLimit, notify)}
}

// Search - tìm cover theo title/author của book
func (f *CoverFinder) Search(title, author string) {
	f.s.Input(title, author)
}

// SearchNow bỏ qua debounce
func (f *CoverFinder) SearchNow(title, author string) {
	f.s.SearchNow(title, author)
}

func (f *CoverFinder) Covers() []string {
	return coverURLs(f.s.Results())
}

func (f *CoverFinder) Close() {
	f.s.Close()
}

func coverURLs(results []openlibrary.Suggestion) []string {
	urls := make([]string, 0, len(results))
	for _, r := range results {
		urls = append(urls, r.CoverURL)
	}
	return urls
}
