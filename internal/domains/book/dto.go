package book

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"bookshelf-backend/internal/shared/utils"
)

// ========================================
// REQUEST PARSING
// ========================================
// Body được decode thành map[string]interface{} trước, vì mỗi field
// có quy tắc coerce riêng (Boolean, Number, Date) thay vì strict JSON typing

// PatchableFields là allow-list cho PATCH /api/books/:id
var PatchableFields = []string{
	"index", "title", "author", "coverUrl", "status", "downloaded",
	"rating", "date", "finishedDate", "genre", "language", "comment",
}

// optional string fields: key JSON -> setter trên CreateInput
var createStringFields = []struct {
	key string
	set func(in *CreateInput, v string)
}{
	{"author", func(in *CreateInput, v string) { in.Author = v }},
	{"coverUrl", func(in *CreateInput, v string) { in.CoverURL = v }},
	{"date", func(in *CreateInput, v string) { in.Date = v }},
	{"genre", func(in *CreateInput, v string) { in.Genre = v }},
	{"language", func(in *CreateInput, v string) { in.Language = v }},
	{"comment", func(in *CreateInput, v string) { in.Comment = v }},
}

var patchStringFields = []struct {
	key string
	set func(p *Patch, v string)
}{
	{"author", func(p *Patch, v string) { p.Author = &v }},
	{"coverUrl", func(p *Patch, v string) { p.CoverURL = &v }},
	{"date", func(p *Patch, v string) { p.Date = &v }},
	{"genre", func(p *Patch, v string) { p.Genre = &v }},
	{"language", func(p *Patch, v string) { p.Language = &v }},
	{"comment", func(p *Patch, v string) { p.Comment = &v }},
}

var statusRules = []validation.Rule{
	validation.Required,
	validation.In(string(StatusToRead), string(StatusReading), string(StatusRead)),
}

// ParseCreate coerce body của POST /api/books
//
// - title: bắt buộc, không rỗng sau khi trim
// - downloaded: Boolean(x)
// - rating: chỉ nhận JSON number, còn lại 0; clamp [0,5], làm tròn 2 chữ số
// - status: mặc định to_read
// - finishedDate: giống PATCH
// - index trong body bị bỏ qua
func ParseCreate(body map[string]interface{}) (*CreateInput, error) {
	in := &CreateInput{Status: StatusToRead}

	title, err := parseTitle(body[FieldTitle])
	if err != nil {
		return nil, err
	}
	in.Title = title

	for _, f := range createStringFields {
		raw, ok := body[f.key]
		if !ok {
			continue
		}
		s, err := utils.ToStringValue(raw)
		if err != nil {
			return nil, utils.NewFieldError(f.key, err)
		}
		f.set(in, s)
	}

	if raw, ok := body[FieldStatus]; ok && raw != nil {
		status, err := parseStatus(raw)
		if err != nil {
			return nil, err
		}
		in.Status = status
	}

	in.Downloaded = utils.Truthy(body["downloaded"])

	if r, ok := body["rating"].(float64); ok {
		in.Rating = utils.RoundRating(utils.Clamp(r, MinRating, MaxRating))
	}

	if raw, ok := body[FieldFinishedDate]; ok {
		d, err := parseFinishedDate(raw)
		if err != nil {
			return nil, err
		}
		in.FinishedDate = d
	}

	return in, nil
}

// ParsePatch coerce body của PATCH /api/books/:id
// Key ngoài allow-list bị bỏ qua. Lỗi ở bất kỳ field nào → không áp dụng gì
func ParsePatch(body map[string]interface{}) (*Patch, error) {
	p := &Patch{}

	if raw, ok := body["index"]; ok {
		n := utils.FiniteOrZero(utils.ToNumber(raw))
		p.Index = &n
	}

	if raw, ok := body[FieldTitle]; ok {
		title, err := parseTitle(raw)
		if err != nil {
			return nil, err
		}
		p.Title = &title
	}

	for _, f := range patchStringFields {
		raw, ok := body[f.key]
		if !ok {
			continue
		}
		s, err := utils.ToStringValue(raw)
		if err != nil {
			return nil, utils.NewFieldError(f.key, err)
		}
		f.set(p, s)
	}

	if raw, ok := body[FieldStatus]; ok {
		status, err := parseStatus(raw)
		if err != nil {
			return nil, err
		}
		p.Status = &status
	}

	if raw, ok := body["downloaded"]; ok {
		d := utils.Truthy(raw)
		p.Downloaded = &d
	}

	if raw, ok := body["rating"]; ok {
		r := utils.RoundRating(utils.Clamp(utils.FiniteOrZero(utils.ToNumber(raw)), MinRating, MaxRating))
		p.Rating = &r
	}

	if raw, ok := body[FieldFinishedDate]; ok {
		d, err := parseFinishedDate(raw)
		if err != nil {
			return nil, err
		}
		p.SetFinishedDate = true
		p.FinishedDate = d
	}

	return p, nil
}

// ========================================
// FIELD HELPERS
// ========================================

func parseTitle(raw interface{}) (string, error) {
	title, err := utils.ToStringValue(raw)
	if err != nil {
		return "", utils.NewFieldError(FieldTitle, err)
	}
	if err := validation.Validate(strings.TrimSpace(title), validation.Required); err != nil {
		return "", utils.NewFieldError(FieldTitle, err)
	}
	return title, nil
}

func parseStatus(raw interface{}) (Status, error) {
	s, ok := raw.(string)
	if !ok {
		return "", utils.NewFieldError(FieldStatus, errors.New("must be a string"))
	}
	if err := validation.Validate(s, statusRules...); err != nil {
		return "", utils.NewFieldError(FieldStatus, err)
	}
	return Status(s), nil
}

func parseFinishedDate(raw interface{}) (*time.Time, error) {
	d, err := utils.ToOptionalDate(raw)
	if err != nil {
		return nil, utils.NewFieldError(FieldFinishedDate, err)
	}
	return d, nil
}
