package user

import (
	"time"
)

// Locale - ngôn ngữ giao diện của user
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleFR Locale = "fr"
)

// DefaultLocale cho user mới
const DefaultLocale = LocaleEN

// Locales returns all supported locales
func Locales() []Locale {
	return []Locale{LocaleEN, LocaleFR}
}

// Giới hạn cho preferences
const (
	MaxSortClauses = 5
	MaxGenres      = 200
)

// SortClause - một cột sort trên bảng books
type SortClause struct {
	ID   string `json:"id" bson:"id"`
	Desc bool   `json:"desc" bson:"desc"`
}

// DefaultBooksSorting: sort theo index tăng dần
func DefaultBooksSorting() []SortClause {
	return []SortClause{{ID: "index", Desc: false}}
}

// User - tạo lần đầu khi đăng nhập Google (upsert theo GoogleID), không bao giờ bị xóa
type User struct {
	ID              string       `json:"id"`
	GoogleID        string       `json:"googleId"`
	Email           string       `json:"email"`
	Name            string       `json:"name"`
	Picture         string       `json:"picture"`
	PreferredLocale Locale       `json:"preferredLocale"`
	Genres          []string     `json:"genres"`
	BooksSorting    []SortClause `json:"booksSorting"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// Identity - thông tin từ identity provider, chỉ các field này được ghi khi login lại
type Identity struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
}

// NewUser dựng user mới với preferences mặc định
func NewUser(id Identity) *User {
	return &User{
		GoogleID:        id.GoogleID,
		Email:           id.Email,
		Name:            id.Name,
		Picture:         id.Picture,
		PreferredLocale: DefaultLocale,
		Genres:          []string{},
		BooksSorting:    DefaultBooksSorting(),
	}
}

// PreferencesUpdate - nil = không đổi
type PreferencesUpdate struct {
	PreferredLocale *Locale
	BooksSorting    []SortClause
	SetBooksSorting bool
}

func (p PreferencesUpdate) IsEmpty() bool {
	return p.PreferredLocale == nil && !p.SetBooksSorting
}

// Apply ghi các field có mặt lên u
func (p PreferencesUpdate) Apply(u *User) {
	if p.PreferredLocale != nil {
		u.PreferredLocale = *p.PreferredLocale
	}
	if p.SetBooksSorting {
		u.BooksSorting = p.BooksSorting
	}
}
