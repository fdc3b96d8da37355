package user

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf-backend/internal/shared/utils"
)

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var fe *utils.FieldError
	require.True(t, errors.As(err, &fe), "expected FieldError, got %v", err)
	return fe.Code()
}

func TestNormalizeSorting(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{"id": "title", "desc": true},
		map[string]interface{}{"id": 3.0},
		"rating",
		nil,
		[]interface{}{"x"},
		map[string]interface{}{"id": "rating", "desc": "yes"},
		map[string]interface{}{"id": "author", "desc": 0.0},
		map[string]interface{}{"id": "a"},
		map[string]interface{}{"id": "b"},
		map[string]interface{}{"id": "c"},
	}

	got, err := NormalizeSorting(raw)
	require.NoError(t, err)
	assert.Equal(t, []SortClause{
		{ID: "title", Desc: true},
		{ID: "rating", Desc: true},
		{ID: "author", Desc: false},
		{ID: "a", Desc: false},
		{ID: "b", Desc: false},
	}, got, "invalid items dropped, capped at 5")

	got, err = NormalizeSorting([]interface{}{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	_, err = NormalizeSorting("index")
	assert.Equal(t, "invalid_booksSorting", codeOf(t, err))
}

func TestNormalizeGenres(t *testing.T) {
	got, err := NormalizeGenres([]interface{}{" Sci-Fi ", "Fantasy", 1.0, "", "   ", "Sci-Fi", "sci-fi", nil, true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sci-Fi", "Fantasy", "sci-fi"}, got)

	_, err = NormalizeGenres(nil)
	assert.Equal(t, "invalid_genres", codeOf(t, err))

	_, err = NormalizeGenres("Fantasy")
	assert.Equal(t, "invalid_genres", codeOf(t, err))
}

func TestNormalizeGenres_Cap(t *testing.T) {
	raw := make([]interface{}, 0, 250)
	for i := 0; i < 250; i++ {
		raw = append(raw, "g"+strconv.Itoa(i))
	}

	got, err := NormalizeGenres(raw)
	require.NoError(t, err)
	assert.Len(t, got, MaxGenres)
	assert.Equal(t, "g0", got[0])
	assert.Equal(t, "g199", got[MaxGenres-1])
}

func TestParsePreferences(t *testing.T) {
	p, err := ParsePreferences(map[string]interface{}{})
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())

	p, err = ParsePreferences(map[string]interface{}{"preferredLocale": "fr"})
	require.NoError(t, err)
	require.NotNil(t, p.PreferredLocale)
	assert.Equal(t, LocaleFR, *p.PreferredLocale)
	assert.False(t, p.SetBooksSorting)

	p, err = ParsePreferences(map[string]interface{}{"booksSorting": []interface{}{}})
	require.NoError(t, err)
	assert.True(t, p.SetBooksSorting)
	assert.Empty(t, p.BooksSorting)

	for _, bad := range []interface{}{"de", "", nil, 1.0, "EN"} {
		_, err = ParsePreferences(map[string]interface{}{"preferredLocale": bad})
		assert.Equal(t, "invalid_preferredLocale", codeOf(t, err), "locale %v", bad)
	}

	_, err = ParsePreferences(map[string]interface{}{"booksSorting": nil})
	assert.Equal(t, "invalid_booksSorting", codeOf(t, err))
}

func TestToMeResponse_NullsAndDefaults(t *testing.T) {
	resp := ToMeResponse(&User{ID: "u1", Name: "Ada", PreferredLocale: LocaleEN})

	assert.Nil(t, resp.Email)
	assert.Nil(t, resp.Picture)
	assert.Equal(t, []string{}, resp.Genres)
	assert.Equal(t, []SortClause{}, resp.BooksSorting)
}

func TestNewUser_Defaults(t *testing.T) {
	u := NewUser(Identity{GoogleID: "g-1", Name: "Ada"})

	assert.Equal(t, LocaleEN, u.PreferredLocale)
	assert.Equal(t, []SortClause{{ID: "index", Desc: false}}, u.BooksSorting)
	assert.Equal(t, []string{}, u.Genres)
}
