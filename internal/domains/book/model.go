package book

import (
	"time"
)

// Status là trạng thái đọc của một cuốn sách
type Status string

const (
	StatusToRead  Status = "to_read"
	StatusReading Status = "reading"
	StatusRead    Status = "read"
)

// Statuses trả về các status hợp lệ theo thứ tự hiển thị
func Statuses() []Status {
	return []Status{StatusToRead, StatusReading, StatusRead}
}

func (s Status) Valid() bool {
	for _, v := range Statuses() {
		if s == v {
			return true
		}
	}
	return false
}

// Giới hạn rating
const (
	MinRating = 0
	MaxRating = 5
)

// Book - entity chính, mỗi book thuộc về đúng một user
type Book struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Index        float64    `json:"index"` // thứ tự sắp xếp thủ công, không unique
	Title        string     `json:"title"`
	Author       string     `json:"author"`
	CoverURL     string     `json:"coverUrl"`
	Status       Status     `json:"status"`
	Downloaded   bool       `json:"downloaded"`
	Rating       float64    `json:"rating"`
	Date         string     `json:"date"`
	FinishedDate *time.Time `json:"finishedDate"`
	Genre        string     `json:"genre"`
	Language     string     `json:"language"`
	Comment      string     `json:"comment"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// CreateInput - payload đã coerce cho POST /api/books
// Index do server gán (max + 1)
type CreateInput struct {
	Title        string
	Author       string
	CoverURL     string
	Status       Status
	Downloaded   bool
	Rating       float64
	Date         string
	FinishedDate *time.Time
	Genre        string
	Language     string
	Comment      string
}

// NewBook dựng Book từ input, ID và timestamps do repository set
func (in CreateInput) NewBook(userID string, index float64) *Book {
	return &Book{
		UserID:       userID,
		Index:        index,
		Title:        in.Title,
		Author:       in.Author,
		CoverURL:     in.CoverURL,
		Status:       in.Status,
		Downloaded:   in.Downloaded,
		Rating:       in.Rating,
		Date:         in.Date,
		FinishedDate: in.FinishedDate,
		Genre:        in.Genre,
		Language:     in.Language,
		Comment:      in.Comment,
	}
}

// Patch - các field được phép sửa qua PATCH, nil = không đổi
// FinishedDate dùng cờ riêng vì null có nghĩa là xóa ngày
type Patch struct {
	Index           *float64
	Title           *string
	Author          *string
	CoverURL        *string
	Status          *Status
	Downloaded      *bool
	Rating          *float64
	Date            *string
	SetFinishedDate bool
	FinishedDate    *time.Time
	Genre           *string
	Language        *string
	Comment         *string
}

// Apply ghi đè các field có mặt trong patch lên b
func (p Patch) Apply(b *Book) {
	if p.Index != nil {
		b.Index = *p.Index
	}
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.CoverURL != nil {
		b.CoverURL = *p.CoverURL
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.Downloaded != nil {
		b.Downloaded = *p.Downloaded
	}
	if p.Rating != nil {
		b.Rating = *p.Rating
	}
	if p.Date != nil {
		b.Date = *p.Date
	}
	if p.SetFinishedDate {
		b.FinishedDate = p.FinishedDate
	}
	if p.Genre != nil {
		b.Genre = *p.Genre
	}
	if p.Language != nil {
		b.Language = *p.Language
	}
	if p.Comment != nil {
		b.Comment = *p.Comment
	}
}

// IsEmpty: true nếu body không chứa field nào trong allow-list
func (p Patch) IsEmpty() bool {
	return p.Index == nil && p.Title == nil && p.Author == nil && p.CoverURL == nil &&
		p.Status == nil && p.Downloaded == nil && p.Rating == nil && p.Date == nil &&
		!p.SetFinishedDate && p.Genre == nil && p.Language == nil && p.Comment == nil
}

// NextIndex: (max || 0) + 1, giữ nguyên quy tắc "0 khi chưa có sách"
func NextIndex(max float64, found bool) float64 {
	if !found {
		return 1
	}
	return max + 1
}
