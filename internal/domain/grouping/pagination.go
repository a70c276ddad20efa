// Package grouping splits a client's articles into direct and contextual
// mentions and paginates each list independently.
package grouping

// DefaultPageSize is the number of rows per page in article tables.
const DefaultPageSize = 20

// linkRadius is how many numbered page links are shown on each side of the current page.
const linkRadius = 3

// Page is one page of a paginated list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Number     int `json:"page"`
	Size       int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// TotalPages returns ceil(total/size), never less than one.
func TotalPages(total, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (total + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage raises page numbers below one to one.
func ClampPage(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Offset returns the row offset of a page.
func Offset(page, size int) int {
	return (ClampPage(page) - 1) * size
}

// Paginate slices items into the requested page. Pages past the end are
// empty but valid.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	page = ClampPage(page)
	p := Page[T]{
		Items:      []T{},
		Number:     page,
		Size:       size,
		Total:      len(items),
		TotalPages: TotalPages(len(items), size),
	}
	start := Offset(page, size)
	if start >= len(items) {
		return p
	}
	end := min(start+size, len(items))
	p.Items = items[start:end]
	return p
}

// NewPage wraps an already fetched window of rows.
func NewPage[T any](items []T, page, size, total int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Number:     ClampPage(page),
		Size:       size,
		Total:      total,
		TotalPages: TotalPages(total, size),
	}
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a following page exists.
func (p Page[T]) HasNext() bool { return p.Number < p.TotalPages }

// Links returns the numbered page links to render around the current page.
func (p Page[T]) Links() []int { return PageLinks(p.Number, p.TotalPages) }

// PageLinks returns the page numbers current-3..current+3 clipped to
// [1, totalPages].
func PageLinks(current, totalPages int) []int {
	if totalPages < 1 {
		totalPages = 1
	}
	lo := max(1, current-linkRadius)
	hi := min(totalPages, current+linkRadius)
	links := make([]int, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		links = append(links, n)
	}
	return links
}
