// Package pagination splits ordered result sets into fixed-size pages that are
// addressed by number or by the keyword "last".
package pagination

import (
	"strconv"
	"strings"

	"github.com/locallibrary/catalog/pkg/errcodes"
)

// LastPage selects the final page regardless of how many there are.
const LastPage = "last"

// Page describes one slice of a result set.
type Page struct {
	Number      int  `json:"number"`
	NumPages    int  `json:"num_pages"`
	Count       int  `json:"count"`
	PerPage     int  `json:"per_page"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// Offset is the number of rows preceding this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Limit is the page size.
func (p Page) Limit() int {
	return p.PerPage
}

// IsPaginated reports whether there is more than one page.
func (p Page) IsPaginated() bool {
	return p.NumPages > 1
}

// NumPagesFor returns how many pages count rows span. An empty result set
// still has one (empty) page.
func NumPagesFor(count, perPage int) int {
	if count <= 0 || perPage <= 0 {
		return 1
	}
	return (count + perPage - 1) / perPage
}

// New resolves the requested page against the total row count. A missing
// page means the first one. Anything that is not a positive number or "last",
// or that lies past the final page, is a 404.
func New(requested string, perPage, count int) (Page, error) {
	numPages := NumPagesFor(count, perPage)

	number := 1
	switch requested = strings.TrimSpace(requested); requested {
	case "":
	case LastPage:
		number = numPages
	default:
		n, err := strconv.Atoi(requested)
		if err != nil {
			return Page{}, errcodes.NotFound("Page")
		}
		number = n
	}

	if number < 1 || number > numPages {
		return Page{}, errcodes.NotFound("Page")
	}

	return Page{
		Number:      number,
		NumPages:    numPages,
		Count:       count,
		PerPage:     perPage,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}, nil
}

// Response is the body of every paginated list endpoint. The items are keyed
// by "<name>_list".
func Response(name string, items interface{}, page Page) map[string]interface{} {
	return map[string]interface{}{
		name + "_list":  items,
		"is_paginated": page.IsPaginated(),
		"page_obj":     page,
	}
}
