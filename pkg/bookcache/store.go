package bookcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/singleflight"

	"bookshelf-backend/internal/domains/book"
	"bookshelf-backend/internal/domains/user"
	"bookshelf-backend/pkg/debounce"
	"bookshelf-backend/pkg/logger"
)

// API - các REST call mà Store cần, apiclient.Client implement interface này
type API interface {
	ListBooks(ctx context.Context) ([]book.Book, error)
	CreateBook(ctx context.Context, fields map[string]interface{}) (*book.Book, error)
	PatchBook(ctx context.Context, id string, fields map[string]interface{}) (*book.Book, error)
	DeleteBook(ctx context.Context, id string) error
	Me(ctx context.Context) (*user.MeResponse, error)
	UpdatePreferences(ctx context.Context, locale *user.Locale, sorting []user.SortClause) (*user.PreferencesResponse, error)
	UpdateGenres(ctx context.Context, genres []string) (*user.GenresResponse, error)
}

// Op - tên thao tác trong Notice
const (
	OpRefreshBooks   = "refresh_books"
	OpRefreshProfile = "refresh_profile"
	OpPatchBook      = "patch_book"
	OpCreateBook     = "create_book"
	OpDeleteBook     = "delete_book"
	OpAddGenre       = "add_genre"
	OpSetLocale      = "set_locale"
	OpSaveSorting    = "save_sorting"
)

const DefaultSortDelay = 500 * time.Millisecond

// Notice - phát ra cho mỗi mutation thất bại, không retry tự động
type Notice struct {
	Op     string
	BookID string
	Err    error
}

type Options struct {
	// SortDelay: khoảng lặng trước khi lưu sorting, mặc định 500ms
	SortDelay time.Duration
	// SaveTimeout cho request lưu sorting chạy nền
	SaveTimeout time.Duration
	Notify      func(Notice)
}

// Store điều phối cache với REST API
type Store struct {
	api   API
	cache *Cache
	group singleflight.Group

	sortSaver   *debounce.Debouncer
	saveTimeout time.Duration

	// mỗi lúc chỉ một request lưu sorting; cấu hình mới hơn chờ ở queued
	saveMu sync.Mutex
	saving bool
	queued []user.SortClause

	mu      sync.Mutex
	profile *user.MeResponse
	sorting []user.SortClause
	notify  func(Notice)

	log zerolog.Logger
}

func NewStore(api API, opts Options) *Store {
	if opts.SortDelay <= 0 {
		opts.SortDelay = DefaultSortDelay
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 30 * time.Second
	}

	return &Store{
		api:         api,
		cache:       NewCache(),
		sortSaver:   debounce.New(opts.SortDelay),
		saveTimeout: opts.SaveTimeout,
		sorting:     user.DefaultBooksSorting(),
		notify:      opts.Notify,
		log:         logger.Component("bookcache"),
	}
}

// Cache expose cache cho view layer
func (s *Store) Cache() *Cache {
	return s.cache
}

// =====================================================
// READS
// =====================================================

// Load - lần tải đầu: books và profile song song, trả về lỗi đầu tiên
func (s *Store) Load(ctx context.Context) error {
	p := pool.New().WithContext(ctx).WithFirstError()
	p.Go(s.Refresh)
	p.Go(s.RefreshProfile)
	return p.Wait()
}

// Refresh refetch books, các call đồng thời dùng chung một request
func (s *Store) Refresh(ctx context.Context) error {
	_, err, _ := s.group.Do("books", func() (interface{}, error) {
		tok, fetchCtx := s.cache.BeginFetch(ctx)
		books, err := s.api.ListBooks(fetchCtx)
		if err != nil {
			// fetch bị cancel bởi optimistic mutation: kết quả đã cũ, không phải lỗi
			if fetchCtx.Err() != nil && ctx.Err() == nil {
				return nil, nil
			}
			return nil, err
		}
		if !s.cache.ApplyList(tok, books) {
			s.log.Debug().Msg("stale book list discarded")
		}
		return nil, nil
	})
	if err != nil {
		s.emit(Notice{Op: OpRefreshBooks, Err: err})
		return fmt.Errorf("refresh books: %w", err)
	}
	return nil
}

// RefreshProfile refetch /api/me, dedupe như Refresh
func (s *Store) RefreshProfile(ctx context.Context) error {
	_, err, _ := s.group.Do("profile", func() (interface{}, error) {
		me, err := s.api.Me(ctx)
		if err != nil {
			return nil, err
		}

		saving := s.sortSaving()

		s.mu.Lock()
		s.profile = me
		// sorting local đang chờ lưu thì giữ nguyên
		if !saving && len(me.BooksSorting) > 0 {
			s.sorting = append([]user.SortClause(nil), me.BooksSorting...)
		}
		s.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		s.emit(Notice{Op: OpRefreshProfile, Err: err})
		return fmt.Errorf("refresh profile: %w", err)
	}
	return nil
}

// Profile trả về copy của profile, nil khi chưa load
func (s *Store) Profile() *user.MeResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	p.Genres = append([]string(nil), s.profile.Genres...)
	p.BooksSorting = append([]user.SortClause(nil), s.profile.BooksSorting...)
	return &p
}

// Books - snapshot hiện tại của list
func (s *Store) Books() []book.Book {
	return s.cache.Snapshot().Books
}

// View - list đã filter theo q và sort theo sorting local
func (s *Store) View(q string) []book.Book {
	return Sort(Filter(s.Books(), q), s.Sorting())
}

// =====================================================
// BOOK MUTATIONS
// =====================================================

// PatchBook: snapshot → optimistic apply → request → commit / rollback + notice.
// Field được coerce bằng cùng quy tắc với server trước khi apply local.
func (s *Store) PatchBook(ctx context.Context, id string, fields map[string]interface{}) (*book.Book, error) {
	// STEP 1: Coerce
	patch, err := book.ParsePatch(fields)
	if err != nil {
		s.emit(Notice{Op: OpPatchBook, BookID: id, Err: err})
		return nil, err
	}

	// STEP 2: Optimistic apply
	tok := s.cache.ApplyOptimistic(id, *patch)

	// STEP 3: Request
	updated, err := s.api.PatchBook(ctx, id, fields)
	if err != nil {
		s.cache.Rollback(tok)
		s.emit(Notice{Op: OpPatchBook, BookID: id, Err: err})
		return nil, fmt.Errorf("patch book: %w", err)
	}

	// STEP 4: Commit record của server
	if !s.cache.Commit(tok, updated) {
		s.log.Debug().Str("book_id", id).Uint64("seq", tok.Seq()).Msg("superseded commit ignored")
	}
	return updated, nil
}

// CreateBook chờ server rồi refetch, không optimistic
func (s *Store) CreateBook(ctx context.Context, fields map[string]interface{}) (*book.Book, error) {
	created, err := s.api.CreateBook(ctx, fields)
	if err != nil {
		s.emit(Notice{Op: OpCreateBook, Err: err})
		return nil, fmt.Errorf("create book: %w", err)
	}
	_ = s.Refresh(ctx)
	return created, nil
}

// DeleteBook chờ server rồi refetch
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	if err := s.api.DeleteBook(ctx, id); err != nil {
		s.emit(Notice{Op: OpDeleteBook, BookID: id, Err: err})
		return fmt.Errorf("delete book: %w", err)
	}
	_ = s.Refresh(ctx)
	return nil
}

// =====================================================
// PROFILE MUTATIONS
// =====================================================

// AddGenre thêm genre vào danh sách option, server chuẩn hóa (trim, dedupe)
func (s *Store) AddGenre(ctx context.Context, genre string) error {
	if s.Profile() == nil {
		if err := s.RefreshProfile(ctx); err != nil {
			return err
		}
	}

	current := s.Profile()
	genres := append(current.Genres, genre)

	if _, err := s.api.UpdateGenres(ctx, genres); err != nil {
		s.emit(Notice{Op: OpAddGenre, Err: err})
		return fmt.Errorf("add genre: %w", err)
	}
	return s.RefreshProfile(ctx)
}

func (s *Store) SetLocale(ctx context.Context, locale user.Locale) error {
	resp, err := s.api.UpdatePreferences(ctx, &locale, nil)
	if err != nil {
		s.emit(Notice{Op: OpSetLocale, Err: err})
		return fmt.Errorf("set locale: %w", err)
	}

	s.mu.Lock()
	if s.profile != nil {
		s.profile.PreferredLocale = resp.PreferredLocale
	}
	s.mu.Unlock()
	return nil
}

// =====================================================
// SORTING
// =====================================================

func (s *Store) Sorting() []user.SortClause {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]user.SortClause(nil), s.sorting...)
}

// SetSorting cập nhật sorting local ngay, lưu lên server sau khoảng lặng.
// Chỉ cấu hình cuối cùng được gửi; sorting rỗng không được lưu.
func (s *Store) SetSorting(clauses []user.SortClause) {
	next := append([]user.SortClause(nil), clauses...)

	s.mu.Lock()
	s.sorting = next
	s.mu.Unlock()

	if len(next) == 0 {
		s.sortSaver.Cancel()
		s.saveMu.Lock()
		s.queued = nil
		s.saveMu.Unlock()
		return
	}
	s.sortSaver.Trigger(func() { s.saveSorting(next) })
}

// FlushSorting lưu ngay sorting đang chờ (vd. trước khi thoát).
// Khi một request lưu đang chạy, cấu hình được gửi ngay sau request đó.
func (s *Store) FlushSorting() bool {
	return s.sortSaver.Flush()
}

// saveSorting gửi các cấu hình lần lượt: request sau chỉ đi khi request trước
// đã xong, nên cấu hình mới nhất luôn tới server cuối cùng.
func (s *Store) saveSorting(clauses []user.SortClause) {
	s.saveMu.Lock()
	if s.saving {
		s.queued = clauses
		s.saveMu.Unlock()
		return
	}
	s.saving = true
	s.saveMu.Unlock()

	for {
		s.sendSorting(clauses)

		s.saveMu.Lock()
		if s.queued == nil {
			s.saving = false
			s.saveMu.Unlock()
			return
		}
		clauses, s.queued = s.queued, nil
		s.saveMu.Unlock()
	}
}

func (s *Store) sendSorting(clauses []user.SortClause) {
	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()

	resp, err := s.api.UpdatePreferences(ctx, nil, clauses)
	if err != nil {
		s.emit(Notice{Op: OpSaveSorting, Err: err})
		return
	}

	s.mu.Lock()
	if s.profile != nil {
		s.profile.BooksSorting = resp.BooksSorting
	}
	s.mu.Unlock()
}

// sortSaving - có cấu hình sorting đang chờ khoảng lặng hoặc đang được lưu
func (s *Store) sortSaving() bool {
	if s.sortSaver.Pending() {
		return true
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.saving
}

func (s *Store) emit(n Notice) {
	s.log.Warn().Err(n.Err).Str("op", n.Op).Str("book_id", n.BookID).Msg("mutation failed")
	if s.notify != nil {
		s.notify(n)
	}
}
