package querycache

import (
	"github.com/soukhub/go-storecache/entity"
)

// ResetPage is the page number that replaces the accumulated result set
// instead of appending to it. A filter or sort change re-requests this page,
// which is how pull-to-refresh produces a clean list under an unchanged key.
const ResetPage = 1

// PageMeta is the pagination metadata carried alongside a paginated result.
// Merges always overwrite it with the latest page's values.
type PageMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
	TotalCount int `json:"total_count"`
}

// Page is the normalized shape of one "infinite scroll" query family:
// the accumulated records plus the metadata of the most recent page.
type Page[T any] struct {
	Items *entity.Store[T]
	Meta  PageMeta
}

// Snapshot implements Snapshotter. Shapes embedding Page must provide their
// own Snapshot; the promoted one would copy only the page.
func (p *Page[T]) Snapshot() any {
	if p == nil {
		return nil
	}
	return &Page[T]{Items: p.Items.Clone(), Meta: p.Meta}
}

// MergePages implements the merge strategy for paginated families: the reset
// page replaces wholesale, any later page appends its records and overwrites
// the metadata. Records already present keep their first position.
func MergePages[T any](prev, next *Page[T]) *Page[T] {
	if prev == nil || next == nil || next.Meta.Page <= ResetPage {
		return next
	}
	prev.Items.AddMany(next.Items.SelectAll())
	prev.Meta = next.Meta
	return prev
}

// PageChanged builds a ForceRefetch predicate from a page accessor. Because
// paginated keys exclude the page argument, a page change must be declared
// explicitly or a page-2 request would be served from the page-1 entry.
func PageChanged[A any](pageOf func(A) int) func(prevArgs, nextArgs any) bool {
	return func(prevArgs, nextArgs any) bool {
		prev, okPrev := prevArgs.(A)
		next, okNext := nextArgs.(A)
		if !okPrev || !okNext {
			return false
		}
		return pageOf(prev) != pageOf(next)
	}
}
