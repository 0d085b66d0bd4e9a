package utilities

import "strings"

// DefaultListPerPage is the page size applied when the caller does not
// request one.
const DefaultListPerPage = 10

// Page is a bounded window over a listing query. Number is 1-based.
type Page struct {
	Number int
	Limit  int
}

// NewPage clamps the requested page number and limit into a usable window.
// A non-positive defaultLimit falls back to DefaultListPerPage.
func NewPage(number, limit, defaultLimit int) Page {
	if defaultLimit <= 0 {
		defaultLimit = DefaultListPerPage
	}
	if number < 1 {
		number = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	return Page{Number: number, Limit: limit}
}

// Offset returns the number of rows to skip for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// FetchLimit returns the row count to request from the store: one more than
// the page size, so the overflow row signals that further results exist.
func (p Page) FetchLimit() int {
	return p.Limit + 1
}

// TrimOverflow cuts rows down to the page size and reports whether an
// overflow row was present, i.e. whether a subsequent page has results.
func TrimOverflow[T any](rows []T, limit int) ([]T, bool) {
	if len(rows) > limit {
		return rows[:limit], true
	}
	return rows, false
}

// LikePattern translates a listing name filter into a SQL LIKE pattern.
// A trailing '*' denotes a prefix match; anything else matches exactly.
// '%' and '_' in the filter are escaped so they never act as wildcards.
func LikePattern(filter string) string {
	prefix := strings.HasSuffix(filter, "*")
	if prefix {
		filter = strings.TrimSuffix(filter, "*")
	}
	filter = strings.ReplaceAll(filter, `\`, `\\`)
	filter = strings.ReplaceAll(filter, "%", `\%`)
	filter = strings.ReplaceAll(filter, "_", `\_`)
	if prefix {
		return filter + "%"
	}
	return filter
}
