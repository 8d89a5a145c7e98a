package models

// BackendPagination is the paging block returned with list endpoints.
type BackendPagination struct {
	Size  int `json:"size"`
	Page  int `json:"page"`
	Count int `json:"count"`
}

const (
	DefaultPageSize = 100
	MaxPageSize     = 500
)

// NormalizePage clamps page/size to sane values (page is 1-based).
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

