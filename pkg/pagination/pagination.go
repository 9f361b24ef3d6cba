package pagination

import (
	"net/http"
	"strconv"
)

// Params represents pagination parameters. Page is 1-based at the HTTP
// boundary; Index is the 0-based page used internally.
type Params struct {
	Page   int `json:"page"`
	Size   int `json:"size"`
	Index  int `json:"-"`
	Offset int `json:"-"`
}

// Meta represents pagination metadata
type Meta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

const (
	DefaultPage = 1
	DefaultSize = 10
)

const (
	HeaderTotalCount = "X-Total-Count"
	HeaderTotalPages = "X-Total-Pages"
)

// NewParams clamps page and size to at least 1.
func NewParams(page, size int) *Params {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}
	return &Params{
		Page:   page,
		Size:   size,
		Index:  page - 1,
		Offset: (page - 1) * size,
	}
}

// GetParams extracts pagination parameters from the query string. Missing
// or unparsable values fall back to the defaults; values below 1 are
// clamped to 1.
func GetParams(r *http.Request) *Params {
	q := r.URL.Query()
	return NewParams(queryInt(q.Get("page"), DefaultPage), queryInt(q.Get("size"), DefaultSize))
}

func queryInt(raw string, defaultVal int) int {
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}
	return v
}

// GetMeta calculates pagination metadata
func GetMeta(params *Params, total int64) *Meta {
	totalPages := int(total / int64(params.Size))
	if total%int64(params.Size) > 0 {
		totalPages++
	}

	return &Meta{
		Page:       params.Page,
		Size:       params.Size,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}

// OutOfRange reports whether the requested page lies beyond the last page.
// The first page is always in range, even for an empty collection.
func (m *Meta) OutOfRange() bool {
	return m.Page > 1 && m.Page > m.TotalPages
}

// WriteHeaders exposes the totals as response headers.
func (m *Meta) WriteHeaders(w http.ResponseWriter) {
	w.Header().Set(HeaderTotalCount, strconv.FormatInt(m.Total, 10))
	w.Header().Set(HeaderTotalPages, strconv.Itoa(m.TotalPages))
}
