package interact

// Pager tracks a zero-based page index clamped to [0, TotalPages()-1].
type Pager struct {
	page  int
	size  int
	count int
}

// NewPager returns a pager on the first page.
func NewPager(size, count int) Pager {
	if size <= 0 {
		size = 1
	}
	if count < 0 {
		count = 0
	}
	return Pager{size: size, count: count}
}

// Page returns the current index.
func (p Pager) Page() int { return p.page }

// Size returns the page size.
func (p Pager) Size() int { return p.size }

// Count returns the number of items.
func (p Pager) Count() int { return p.count }

// TotalPages returns ceil(count/size), and 1 for an empty list.
func (p Pager) TotalPages() int {
	if p.count == 0 || p.size <= 0 {
		return 1
	}
	return (p.count + p.size - 1) / p.size
}

// HasNext reports whether Next would move.
func (p Pager) HasNext() bool { return p.page < p.TotalPages()-1 }

// HasPrev reports whether Prev would move.
func (p Pager) HasPrev() bool { return p.page > 0 }

// Next advances one page, stopping at the last.
func (p *Pager) Next() { p.Go(p.page + 1) }

// Prev steps back one page, stopping at the first.
func (p *Pager) Prev() { p.Go(p.page - 1) }

// Go jumps to page, clamped to the valid range.
func (p *Pager) Go(page int) {
	last := p.TotalPages() - 1
	switch {
	case page < 0:
		page = 0
	case page > last:
		page = last
	}
	p.page = page
}

// SetCount updates the item count and re-clamps the index.
func (p *Pager) SetCount(count int) {
	if count < 0 {
		count = 0
	}
	p.count = count
	p.Go(p.page)
}

// Bounds returns the [start, end) item range of the current page.
func (p Pager) Bounds() (start, end int) {
	size := p.size
	if size <= 0 {
		size = 1
	}
	start = p.page * size
	if start > p.count {
		start = p.count
	}
	end = start + size
	if end > p.count {
		end = p.count
	}
	return start, end
}

// Slice returns the items on the pager's current page.
func Slice[T any](p Pager, items []T) []T {
	p.SetCount(len(items))
	start, end := p.Bounds()
	return items[start:end]
}
