package user

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"bookshelf-backend/internal/shared/utils"
)

// ========================================
// REQUEST PARSING
// ========================================

var localeRules = []validation.Rule{
	validation.Required,
	validation.In(string(LocaleEN), string(LocaleFR)),
}

// ParsePreferences coerce body của PATCH /api/me/preferences
//
// - preferredLocale: có mặt thì phải đúng "en" hoặc "fr" (null cũng bị từ chối)
// - booksSorting: có mặt thì phải là array, item lỗi bị bỏ qua
func ParsePreferences(body map[string]interface{}) (*PreferencesUpdate, error) {
	p := &PreferencesUpdate{}

	if raw, ok := body[FieldPreferredLocale]; ok {
		s, isString := raw.(string)
		if !isString {
			return nil, utils.NewFieldError(FieldPreferredLocale, ErrUnsupportedLocale)
		}
		if err := validation.Validate(s, localeRules...); err != nil {
			return nil, utils.NewFieldError(FieldPreferredLocale, ErrUnsupportedLocale)
		}
		locale := Locale(s)
		p.PreferredLocale = &locale
	}

	if raw, ok := body[FieldBooksSorting]; ok {
		sorting, err := NormalizeSorting(raw)
		if err != nil {
			return nil, err
		}
		p.BooksSorting = sorting
		p.SetBooksSorting = true
	}

	return p, nil
}

// NormalizeSorting giữ các item là object có id kiểu string,
// desc ép kiểu Boolean, tối đa MaxSortClauses item
func NormalizeSorting(raw interface{}) ([]SortClause, error) {
	items, err := utils.ToArray(raw)
	if err != nil {
		return nil, utils.NewFieldError(FieldBooksSorting, ErrNotAnArray)
	}

	out := make([]SortClause, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		id, ok := obj["id"].(string)
		if !ok {
			continue
		}
		out = append(out, SortClause{ID: id, Desc: utils.Truthy(obj["desc"])})
		if len(out) == MaxSortClauses {
			break
		}
	}
	return out, nil
}

// ParseGenres coerce body của PATCH /api/me/genres, genres là bắt buộc
func ParseGenres(body map[string]interface{}) ([]string, error) {
	return NormalizeGenres(body[FieldGenres])
}

// NormalizeGenres: bỏ item không phải string, trim, bỏ rỗng,
// dedupe giữ thứ tự xuất hiện đầu tiên (phân biệt hoa thường), tối đa MaxGenres
func NormalizeGenres(raw interface{}) ([]string, error) {
	items, err := utils.ToArray(raw)
	if err != nil {
		return nil, utils.NewFieldError(FieldGenres, ErrNotAnArray)
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) == MaxGenres {
			break
		}
	}
	return out, nil
}

// ========================================
// RESPONSES
// ========================================

// MeResponse - GET /api/me
type MeResponse struct {
	ID              string       `json:"id"`
	Email           *string      `json:"email"`
	Name            string       `json:"name"`
	Picture         *string      `json:"picture"`
	PreferredLocale Locale       `json:"preferredLocale"`
	Genres          []string     `json:"genres"`
	BooksSorting    []SortClause `json:"booksSorting"`
}

// PreferencesResponse - PATCH /api/me/preferences
type PreferencesResponse struct {
	ID              string       `json:"id"`
	PreferredLocale Locale       `json:"preferredLocale"`
	BooksSorting    []SortClause `json:"booksSorting"`
}

// GenresResponse - PATCH /api/me/genres
type GenresResponse struct {
	ID     string   `json:"id"`
	Genres []string `json:"genres"`
}

func ToMeResponse(u *User) MeResponse {
	return MeResponse{
		ID:              u.ID,
		Email:           nullable(u.Email),
		Name:            u.Name,
		Picture:         nullable(u.Picture),
		PreferredLocale: u.PreferredLocale,
		Genres:          nonNilGenres(u.Genres),
		BooksSorting:    nonNilSorting(u.BooksSorting),
	}
}

func ToPreferencesResponse(u *User) PreferencesResponse {
	return PreferencesResponse{
		ID:              u.ID,
		PreferredLocale: u.PreferredLocale,
		BooksSorting:    nonNilSorting(u.BooksSorting),
	}
}

func ToGenresResponse(u *User) GenresResponse {
	return GenresResponse{ID: u.ID, Genres: nonNilGenres(u.Genres)}
}

// nullable: chuỗi rỗng → null trong JSON
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNilGenres(g []string) []string {
	if g == nil {
		return []string{}
	}
	return g
}

func nonNilSorting(s []SortClause) []SortClause {
	if s == nil {
		return []SortClause{}
	}
	return s
}
