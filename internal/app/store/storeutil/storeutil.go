// Package storeutil holds paging shared by the list endpoints.
package storeutil

import (
	"net/url"
	"strconv"

	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultSize is used when a caller asks for no particular page size.
const DefaultSize = 20

// Page is a 1-based page of Size documents.
type Page struct {
	Number int64
	Size   int64
}

// NewPage clamps number to at least 1 and size to max. A non-positive size
// becomes DefaultSize (or max when that is smaller).
func NewPage(number, size, max int64) Page {
	if number < 1 {
		number = 1
	}
	if size <= 0 {
		size = DefaultSize
	}
	if max > 0 && size > max {
		size = max
	}
	return Page{Number: number, Size: size}
}

// FromQuery reads ?page= and ?limit=. Unparseable values fall back to the
// defaults.
func FromQuery(q url.Values, max int64) Page {
	size, _ := strconv.ParseInt(q.Get("limit"), 10, 64)
	return NewPage(Number(q), size, max)
}

// Number reads ?page=, returning 1 when absent or invalid.
func Number(q url.Values) int64 {
	n, err := strconv.ParseInt(q.Get("page"), 10, 64)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Skip is the number of documents before the page.
func (p Page) Skip() int64 { return (p.Number - 1) * p.Size }

// FindOptions returns skip/limit options for the page.
func (p Page) FindOptions() *options.FindOptions {
	return options.Find().SetLimit(p.Size).SetSkip(p.Skip())
}

// Pages returns how many pages total documents fill; never less than 1.
func (p Page) Pages(total int64) int64 {
	if total <= 0 || p.Size <= 0 {
		return 1
	}
	return (total + p.Size - 1) / p.Size
}
