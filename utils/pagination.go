package utils

import "strconv"

// PageSize is the fixed number of items per listing page.
const PageSize = 10

// Pagination carries the navigation metadata attached to every listing
// response.
type Pagination struct {
	Page        int   `json:"page"`
	PageSize    int   `json:"page_size"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// Paginate clamps a 1-based page number into the valid range for total items
// and returns the metadata plus the query offset. Out-of-range pages are
// clamped rather than rejected, so the last page is served for overshooting
// requests and page 1 for anything below it.
func Paginate(page int, total int64) (Pagination, int) {
	totalPages := int((total + PageSize - 1) / PageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return Pagination{
		Page:        page,
		PageSize:    PageSize,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}, (page - 1) * PageSize
}

// ParsePage reads a page query parameter, defaulting to 1.
func ParsePage(raw string) int {
	if p, err := strconv.Atoi(raw); err == nil && p > 0 {
		return p
	}
	return 1
}
