package querycache

import (
	"reflect"
	"testing"

	"github.com/soukhub/go-storecache/entity"
)

func pageOf(meta PageMeta, items ...item) *Page[item] {
	s := entity.NewStore(itemID)
	s.SetAll(items)
	return &Page[item]{Items: s, Meta: meta}
}

func TestMergePages_LaterPageAppends(t *testing.T) {
	prev := pageOf(PageMeta{Page: 1, TotalPages: 2}, item{ID: "a"}, item{ID: "b"})
	next := pageOf(PageMeta{Page: 2, TotalPages: 2}, item{ID: "c"}, item{ID: "d"})

	merged := MergePages(prev, next)

	want := []string{"a", "b", "c", "d"}
	if got := merged.Items.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if merged.Meta.Page != 2 {
		t.Errorf("metadata must come from the latest page, got %+v", merged.Meta)
	}
}

func TestMergePages_ResetPageReplaces(t *testing.T) {
	prev := pageOf(PageMeta{Page: 2}, item{ID: "a"}, item{ID: "b"}, item{ID: "c"}, item{ID: "d"})
	next := pageOf(PageMeta{Page: 1}, item{ID: "e"}, item{ID: "f"})

	merged := MergePages(prev, next)

	want := []string{"e", "f"}
	if got := merged.Items.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("a page-1 refetch must replace wholesale, got %v", got)
	}
}

func TestMergePages_DuplicateRecordsKeepFirstPosition(t *testing.T) {
	prev := pageOf(PageMeta{Page: 1}, item{ID: "a", Name: "first"}, item{ID: "b"})
	next := pageOf(PageMeta{Page: 2}, item{ID: "a", Name: "dup"}, item{ID: "c"})

	merged := MergePages(prev, next)

	want := []string{"a", "b", "c"}
	if got := merged.Items.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if rec, _ := merged.Items.SelectByID("a"); rec.Name != "first" {
		t.Errorf("the earlier record wins on overlap, got %+v", rec)
	}
}

func TestMergePages_NilPrevTakesNext(t *testing.T) {
	next := pageOf(PageMeta{Page: 3}, item{ID: "x"})
	if merged := MergePages(nil, next); merged != next {
		t.Error("a nil accumulated page takes the incoming page as-is")
	}
}

func TestPageChanged(t *testing.T) {
	type args struct {
		Page int
		Sort string
	}
	changed := PageChanged(func(a args) int { return a.Page })

	if !changed(args{Page: 1}, args{Page: 2}) {
		t.Error("a page change must force the refetch")
	}
	if changed(args{Page: 2, Sort: "price"}, args{Page: 2, Sort: "name"}) {
		t.Error("a same-page argument change must not force a refetch")
	}
	if changed(nil, args{Page: 1}) {
		t.Error("a type mismatch must not force a refetch")
	}
}
