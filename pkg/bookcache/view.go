package bookcache

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"bookshelf-backend/internal/domains/book"
	"bookshelf-backend/internal/domains/user"
)

// =====================================================
// READ MODEL: FILTER + MULTI-KEY SORT
// =====================================================

// fold chuẩn hóa NFC + lowercase để "é" dạng tổ hợp và dạng dựng sẵn khớp nhau
func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// Filter giữ các book có title/author/genre/language/comment chứa q (không phân biệt hoa thường).
// q rỗng trả về toàn bộ list.
func Filter(books []book.Book, q string) []book.Book {
	needle := fold(strings.TrimSpace(q))
	out := make([]book.Book, 0, len(books))
	for _, b := range books {
		if needle == "" || matches(b, needle) {
			out = append(out, b)
		}
	}
	return out
}

func matches(b book.Book, needle string) bool {
	for _, field := range []string{b.Title, b.Author, b.Genre, b.Language, b.Comment} {
		if strings.Contains(fold(field), needle) {
			return true
		}
	}
	return false
}

// comparator trả về <0, 0, >0
type comparator func(a, b *book.Book) int

var columns = map[string]comparator{
	"index":        func(a, b *book.Book) int { return compareFloat(a.Index, b.Index) },
	"title":        func(a, b *book.Book) int { return compareText(a.Title, b.Title) },
	"author":       func(a, b *book.Book) int { return compareText(a.Author, b.Author) },
	"status":       func(a, b *book.Book) int { return statusRank(a.Status) - statusRank(b.Status) },
	"downloaded":   func(a, b *book.Book) int { return compareBool(a.Downloaded, b.Downloaded) },
	"rating":       func(a, b *book.Book) int { return compareFloat(a.Rating, b.Rating) },
	"date":         func(a, b *book.Book) int { return compareText(a.Date, b.Date) },
	"finishedDate": func(a, b *book.Book) int { return compareTime(a.FinishedDate, b.FinishedDate) },
	"genre":        func(a, b *book.Book) int { return compareText(a.Genre, b.Genre) },
	"language":     func(a, b *book.Book) int { return compareText(a.Language, b.Language) },
	"comment":      func(a, b *book.Book) int { return compareText(a.Comment, b.Comment) },
	"createdAt":    func(a, b *book.Book) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

// Sort trả về list mới sort ổn định theo các clause, id không biết bị bỏ qua
func Sort(books []book.Book, clauses []user.SortClause) []book.Book {
	out := make([]book.Book, len(books))
	copy(out, books)

	type key struct {
		cmp  comparator
		desc bool
	}
	keys := make([]key, 0, len(clauses))
	for _, c := range clauses {
		if cmp, ok := columns[c.ID]; ok {
			keys = append(keys, key{cmp: cmp, desc: c.Desc})
		}
	}
	if len(keys) == 0 {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range keys {
			r := k.cmp(&out[i], &out[j])
			if r == 0 {
				continue
			}
			if k.desc {
				return r > 0
			}
			return r < 0
		}
		return false
	})
	return out
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareText(a, b string) int {
	return strings.Compare(fold(a), fold(b))
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

// nil (chưa đọc xong) đứng trước
func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func statusRank(s book.Status) int {
	for i, v := range book.Statuses() {
		if v == s {
			return i
		}
	}
	return len(book.Statuses())
}
