package core

import (
	"strconv"
	"strings"
)

// Pager describes one page of a list view.
type Pager struct {
	Number   int // 1-based
	Size     int
	Count    int // total rows
	NumPages int
}

// NewPager resolves a requested page number leniently: input that is not
// an integer selects the first page, and a number outside [1, NumPages]
// selects the last page. An empty list still has one (empty) page.
func NewPager(raw string, count, size int) Pager {
	if size < 1 {
		size = 1
	}
	numPages := (count + size - 1) / size
	if numPages < 1 {
		numPages = 1
	}
	number, err := strconv.Atoi(strings.TrimSpace(raw))
	switch {
	case err != nil:
		number = 1
	case number < 1 || number > numPages:
		number = numPages
	}
	return Pager{Number: number, Size: size, Count: count, NumPages: numPages}
}

// Offset is the number of rows preceding this page.
func (p Pager) Offset() int {
	return (p.Number - 1) * p.Size
}

func (p Pager) HasPrevious() bool { return p.Number > 1 }
func (p Pager) HasNext() bool     { return p.Number < p.NumPages }
func (p Pager) Previous() int     { return p.Number - 1 }
func (p Pager) Next() int         { return p.Number + 1 }

// Pages lists every page number, for rendering page links.
func (p Pager) Pages() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
