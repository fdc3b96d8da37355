package bookcache

import (
	"context"
	"sync"

	"github.com/tiendc/go-deepcopy"

	"bookshelf-backend/internal/domains/book"
)

// =====================================================
// OPTIMISTIC BOOK CACHE
// =====================================================
// Mỗi record ở một trong hai trạng thái: clean hoặc optimistic-pending.
// Thứ tự giữa các intent trên cùng một record theo intent sequence,
// không theo thứ tự response về.

// State của một record trong cache
type State int

const (
	StateClean State = iota
	StatePending
)

// Snapshot - bản copy của list tại một version
type Snapshot struct {
	Books   []book.Book
	Version uint64
}

// Token - trạng thái trước một optimistic mutation, dùng cho Commit / Rollback
type Token struct {
	id        string
	seq       uint64
	version   uint64
	found     bool
	fresh     bool // không có intent nào khác của id đang chạy lúc apply
	prior     book.Book
	priorList []book.Book
}

// Seq - intent sequence của mutation
func (t Token) Seq() uint64 { return t.seq }

// FetchToken - đánh dấu một lần refetch toàn bộ list
type FetchToken struct {
	fetch    uint64
	mutation uint64
}

// confirmed - record server xác nhận gần nhất của một id còn intent đang chạy
type confirmed struct {
	book     book.Book
	seq      uint64 // intent đã xác nhận book, 0 = lấy từ list
	inflight int
}

type Cache struct {
	mu      sync.Mutex
	books   []book.Book
	version uint64

	seq       uint64            // intent sequence, tăng mỗi ApplyOptimistic
	latest    map[string]uint64 // id -> intent mới nhất
	pending   map[string]bool   // intent mới nhất của id chưa có kết quả
	confirmed map[string]*confirmed

	fetchSeq    uint64
	cancelFetch context.CancelFunc
}

func NewCache() *Cache {
	return &Cache{
		books:     []book.Book{},
		latest:    make(map[string]uint64),
		pending:   make(map[string]bool),
		confirmed: make(map[string]*confirmed),
	}
}

// Snapshot trả về bản deep copy, caller sửa thoải mái
func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{Books: copyList(c.books), Version: c.version}
}

// Get trả về copy của một record
func (c *Cache) Get(id string) (book.Book, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return book.Book{}, false
	}
	return copyBook(c.books[i]), true
}

func (c *Cache) State(id string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[id] {
		return StatePending
	}
	if cr := c.confirmed[id]; cr != nil && cr.inflight > 0 {
		return StatePending
	}
	return StateClean
}

// ApplyOptimistic merge patch vào record theo id, trả về token giữ trạng thái trước đó.
// Fetch đang chạy bị cancel vì kết quả của nó đã cũ.
func (c *Cache) ApplyOptimistic(id string, patch book.Patch) Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	tok := Token{
		id:        id,
		seq:       c.seq,
		version:   c.version,
		priorList: copyList(c.books),
	}
	c.latest[id] = c.seq

	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}

	i := c.indexOf(id)
	if i < 0 {
		return tok
	}

	cr := c.confirmed[id]
	if cr == nil {
		cr = &confirmed{book: copyBook(c.books[i])}
		c.confirmed[id] = cr
		tok.fresh = true
	}
	cr.inflight++

	tok.found = true
	tok.prior = copyBook(c.books[i])
	patch.Apply(&c.books[i])
	c.pending[id] = true
	c.version++
	return tok
}

// Commit merge record từ server. Bỏ qua (false) nếu đã có intent mới hơn cho id này.
// Record server vẫn được ghi nhận là bản xác nhận gần nhất, và được hiển thị
// khi intent mới hơn đã rollback.
func (c *Cache) Commit(tok Token, server *book.Book) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.release(tok.id)

	cr := c.confirmed[tok.id]
	if tok.found && cr != nil {
		cr.inflight--
		if server != nil && tok.seq > cr.seq {
			cr.book = copyBook(*server)
			cr.seq = tok.seq
		}
	}

	if c.latest[tok.id] != tok.seq {
		if !c.pending[tok.id] && cr != nil && cr.seq == tok.seq {
			if i := c.indexOf(tok.id); i >= 0 {
				c.books[i] = copyBook(cr.book)
				c.version++
			}
		}
		return false
	}
	delete(c.pending, tok.id)

	if server == nil {
		return true
	}
	if i := c.indexOf(server.ID); i >= 0 {
		c.books[i] = copyBook(*server)
		c.version++
	}
	return true
}

// Rollback khôi phục record về bản server xác nhận gần nhất, không phải giá trị
// optimistic của một intent cũ hơn. Nếu không có thay đổi nào khác kể từ intent
// thì khôi phục cả list.
func (c *Cache) Rollback(tok Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.release(tok.id)

	cr := c.confirmed[tok.id]
	if tok.found && cr != nil {
		cr.inflight--
	}

	if c.latest[tok.id] != tok.seq {
		return false
	}
	delete(c.pending, tok.id)

	if !tok.found {
		return true
	}

	switch i := c.indexOf(tok.id); {
	case tok.fresh && c.version == tok.version+1:
		c.books = copyList(tok.priorList)
	case i >= 0 && cr != nil:
		c.books[i] = copyBook(cr.book)
	case i >= 0:
		c.books[i] = copyBook(tok.prior)
	}
	c.version++
	return true
}

// BeginFetch bắt đầu một lần refetch, cancel fetch trước đó.
// ctx trả về bị cancel khi có optimistic mutation hoặc fetch mới hơn.
func (c *Cache) BeginFetch(ctx context.Context) (FetchToken, context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelFetch != nil {
		c.cancelFetch()
	}
	c.fetchSeq++

	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancelFetch = cancel
	return FetchToken{fetch: c.fetchSeq, mutation: c.seq}, fetchCtx
}

// ApplyList thay toàn bộ list. Bỏ qua (false) nếu đã có mutation
// hoặc fetch mới hơn kể từ BeginFetch.
func (c *Cache) ApplyList(tok FetchToken, books []book.Book) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if tok.fetch != c.fetchSeq || tok.mutation != c.seq {
		return false
	}
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}

	// record còn intent đang chạy: list mới là bản xác nhận,
	// giá trị optimistic của intent chưa có kết quả vẫn hiển thị
	next := copyList(books)
	for id, cr := range c.confirmed {
		j := indexIn(next, id)
		if j < 0 {
			continue
		}
		cr.book = copyBook(next[j])
		if i := c.indexOf(id); i >= 0 && c.pending[id] {
			next[j] = copyBook(c.books[i])
		}
	}

	c.books = next
	c.version++
	return true
}

// release bỏ bản xác nhận khi id không còn intent nào đang chạy
func (c *Cache) release(id string) {
	if cr := c.confirmed[id]; cr != nil && cr.inflight <= 0 {
		delete(c.confirmed, id)
	}
}

func (c *Cache) indexOf(id string) int {
	return indexIn(c.books, id)
}

func indexIn(books []book.Book, id string) int {
	for i := range books {
		if books[i].ID == id {
			return i
		}
	}
	return -1
}

func copyList(books []book.Book) []book.Book {
	out := []book.Book{}
	if len(books) == 0 {
		return out
	}
	if err := deepcopy.Copy(&out, books); err != nil {
		// Book chỉ có field plain, Copy không lỗi trong thực tế
		out = make([]book.Book, len(books))
		copy(out, books)
	}
	return out
}

func copyBook(b book.Book) book.Book {
	var out book.Book
	if err := deepcopy.Copy(&out, b); err != nil {
		return b
	}
	return out
}
