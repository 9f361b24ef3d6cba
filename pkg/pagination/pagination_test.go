package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetParams(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantPage   int
		wantSize   int
		wantOffset int
	}{
		{"defaults", "", 1, 10, 0},
		{"explicit", "?page=3&size=5", 3, 5, 10},
		{"zero page clamps", "?page=0&size=5", 1, 5, 0},
		{"negative size clamps", "?page=2&size=-4", 2, 1, 1},
		{"garbage falls back", "?page=abc&size=xyz", 1, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/users"+tt.query, nil)
			p := GetParams(r)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantSize, p.Size)
			assert.Equal(t, tt.wantPage-1, p.Index)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

func TestGetMeta(t *testing.T) {
	meta := GetMeta(NewParams(2, 5), 11)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrev)
	assert.False(t, meta.OutOfRange())

	assert.True(t, GetMeta(NewParams(4, 5), 11).OutOfRange())
	assert.False(t, GetMeta(NewParams(1, 10), 0).OutOfRange(), "first page of an empty set is in range")
	assert.True(t, GetMeta(NewParams(2, 10), 0).OutOfRange())
}

func TestWriteHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	GetMeta(NewParams(1, 2), 5).WriteHeaders(w)
	assert.Equal(t, "5", w.Header().Get(HeaderTotalCount))
	assert.Equal(t, "3", w.Header().Get(HeaderTotalPages))
}
