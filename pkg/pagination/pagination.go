package pagination

const (
	// DefaultPageSize is the standard window when a size is not provided.
	DefaultPageSize = 20
	// MaxPageSize caps how many rows any page query can request.
	MaxPageSize = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Page     int
	PageSize int
}

// Normalize enforces a 1-indexed page and the configured default and
// maximum page sizes.
func Normalize(p Params) Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the row offset for the normalized window.
func (p Params) Offset() int {
	n := Normalize(p)
	return (n.Page - 1) * n.PageSize
}

// Page is a window of records plus total-count metadata for client-side
// pagination.
type Page[T any] struct {
	Items       []T   `json:"items"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	TotalCount  int64 `json:"total_count"`
	TotalPages  int   `json:"total_pages"`
}

// NewPage assembles a page result for the given window and total row count.
func NewPage[T any](items []T, params Params, total int64) Page[T] {
	params = Normalize(params)
	if items == nil {
		items = []T{}
	}

	totalPages := int(total) / params.PageSize
	if int(total)%params.PageSize != 0 {
		totalPages++
	}

	return Page[T]{
		Items:       items,
		CurrentPage: params.Page,
		PageSize:    params.PageSize,
		TotalCount:  total,
		TotalPages:  totalPages,
	}
}
