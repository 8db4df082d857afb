// Package pagination holds the page envelope returned by all listing
// endpoints.
package pagination

// DefaultPerPage matches the table page size used by the frontend.
const DefaultPerPage = 9

// Page is a single page of results with the paginator fields the
// table views consume.
type Page struct {
	Data     interface{} `json:"data"`
	Page     int         `json:"page"`
	PerPage  int         `json:"per_page"`
	Total    int64       `json:"total"`
	LastPage int         `json:"last_page"`
}

// New builds a Page, deriving LastPage from the total row count.
func New(data interface{}, page, perPage int, total int64) Page {
	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last < 1 {
		last = 1
	}
	return Page{
		Data:     data,
		Page:     page,
		PerPage:  perPage,
		Total:    total,
		LastPage: last,
	}
}

// Clamp normalizes a requested page number to at least 1.
func Clamp(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Offset converts a page number to a row offset.
func Offset(page, perPage int) int {
	return (Clamp(page) - 1) * perPage
}
