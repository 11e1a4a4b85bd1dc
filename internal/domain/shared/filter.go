package shared

// Filter is the paging, sorting and search criteria of list queries.
// Filters holds repository specific criteria keyed by the names each
// domain package exports.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]any
}

// DefaultFilter returns the first page of 20, newest first
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  map[string]any{},
	}
}
