package pagination

import "strconv"

const (
	DesktopWindow   = 7
	MobileWindow    = 3
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Item is one control in a page bar: a page number or an ellipsis.
type Item struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// Window computes the page bar for the current page. The first and last pages
// are always shown; gaps collapse into an ellipsis.
func Window(totalPages, currentPage int, isMobile bool) []Item {
	if totalPages <= 0 {
		return []Item{}
	}
	currentPage = clamp(currentPage, 1, totalPages)

	visible := DesktopWindow
	if isMobile {
		visible = MobileWindow
	}

	if totalPages <= visible+2 {
		return pages(1, totalPages)
	}

	// middle window [current-half, current+half] needs a hidden page on each side
	half := (visible - 3) / 2
	items := []Item{}
	switch {
	case currentPage <= half+2:
		items = append(items, pages(1, visible)...)
		items = append(items, Item{Ellipsis: true}, Item{Page: totalPages})
	case currentPage >= totalPages-half-1:
		items = append(items, Item{Page: 1}, Item{Ellipsis: true})
		items = append(items, pages(totalPages-visible+1, totalPages)...)
	default:
		items = append(items, Item{Page: 1}, Item{Ellipsis: true})
		items = append(items, pages(currentPage-half, currentPage+half)...)
		items = append(items, Item{Ellipsis: true}, Item{Page: totalPages})
	}
	return items
}

func pages(from, to int) []Item {
	items := make([]Item, 0, to-from+1)
	for p := from; p <= to; p++ {
		items = append(items, Item{Page: p})
	}
	return items
}

// Meta describes one page of a list response.
type Meta struct {
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	Total      int    `json:"total"`
	TotalPages int    `json:"totalPages"`
	Window     []Item `json:"window"`
}

// Paginate returns the items on the requested page.
func Paginate[T any](items []T, page, size int, isMobile bool) ([]T, Meta) {
	size = clamp(size, 1, MaxPageSize)
	total := len(items)
	totalPages := (total + size - 1) / size
	if totalPages == 0 {
		page = 1
	} else {
		page = clamp(page, 1, totalPages)
	}

	start := (page - 1) * size
	end := min(start+size, total)

	return items[start:end], Meta{
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: totalPages,
		Window:     Window(totalPages, page, isMobile),
	}
}

// Params reads page, pageSize and mobile from query values, falling back to
// defaults for missing or malformed input.
func Params(get func(string) string) (page, size int, isMobile bool) {
	page = atoiOr(get("page"), 1)
	size = atoiOr(get("pageSize"), DefaultPageSize)
	isMobile, _ = strconv.ParseBool(get("mobile"))
	return page, size, isMobile
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
