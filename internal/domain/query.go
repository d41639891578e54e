package domain

import "math"

// PageSize is the fixed window of a paged evaluation list.
const PageSize = 30

// maxPage keeps the computed offset from overflowing int.
const maxPage = math.MaxInt/PageSize + 1

// ListQuery selects evaluation summaries for list views.
type ListQuery struct {
	// Filter restricts results to patients whose name contains it,
	// ignoring case. Empty matches everything.
	Filter string
	// Limit, when positive, overrides paging and returns up to Limit rows
	// from the start.
	Limit int
	// Page is 1-based; values below 1 are treated as 1.
	Page int
}

// Window returns the SQL LIMIT and OFFSET for the query.
func (q ListQuery) Window() (limit, offset int) {
	if q.Limit > 0 {
		return q.Limit, 0
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	return PageSize, (page - 1) * PageSize
}

// Pages returns how many pages total results span, at least 1.
func Pages(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + PageSize - 1) / PageSize
}
