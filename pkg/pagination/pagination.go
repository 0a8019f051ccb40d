package pagination

import (
	"net/url"
	"strconv"
)

// DefaultLimit is the page size the company history list requests.
const DefaultLimit = 20

// Params holds the page the caller wants next. Pagination is client-driven:
// the caller picks Page and the server is trusted to return at most Limit rows.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// DefaultParams returns the first page with the default limit.
func DefaultParams() Params {
	return Params{
		Page:  1,
		Limit: DefaultLimit,
	}
}

// Apply adds page and limit to q. Zero values are omitted so the server
// applies its own defaults.
func (p Params) Apply(q url.Values) {
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
}

// Cursor describes a fetched page.
type Cursor struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

// HasMore reports whether another page probably exists. It is derived from
// the returned row count, not from the server: a final page holding exactly
// limit rows also yields true, and the next fetch comes back empty.
func HasMore(returned, limit int) bool {
	return returned > 0 && returned == limit
}

// NewCursor builds the cursor for a page that returned the given row count.
func NewCursor(page, limit, total, returned int) Cursor {
	return Cursor{
		Page:    page,
		Limit:   limit,
		Total:   total,
		HasMore: HasMore(returned, limit),
	}
}

// Exhausted reports whether pages up to and including c already cover the
// server's total. An unknown total (zero) never exhausts.
func (c Cursor) Exhausted() bool {
	return c.Total > 0 && c.Limit > 0 && c.Page*c.Limit >= c.Total
}

// Next returns the params for the page after c.
func (c Cursor) Next() Params {
	return Params{Page: c.Page + 1, Limit: c.Limit}
}

// Accumulate merges a fetched page into the rows already shown. Page 1
// (or a reset) replaces the list; later pages are appended.
func Accumulate[T any](existing []T, page int, rows []T, reset bool) []T {
	if reset || page <= 1 {
		out := make([]T, len(rows))
		copy(out, rows)
		return out
	}
	return append(existing, rows...)
}
