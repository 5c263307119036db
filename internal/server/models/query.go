package models

// Query is the transient memo listing filter. Zero values mean "filter not
// set" (a memoId of 0 never identifies a stored memo). Page and PageSize
// default to 1 and 20 when left at zero.
type Query struct {
	Content  string `json:"content,omitempty"`
	Username string `json:"username,omitempty"`
	UserID   int64  `json:"userId,omitempty"`
	MemoID   int64  `json:"memoId,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"pageSize,omitempty"`
}

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// Normalize applies the listing defaults to page and page size.
func (q *Query) Normalize() {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
}
