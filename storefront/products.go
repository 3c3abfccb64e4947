package storefront

import (
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/soukhub/go-storecache/cache"
	"github.com/soukhub/go-storecache/entity"
	"github.com/soukhub/go-storecache/querycache"
	"github.com/soukhub/go-storecache/transport"
)

const (
	productType  = "product"
	categoryType = "category"
)

// ProductListArgs parameterize the product listing. Page is deliberately
// excluded from the cache key: every page of one filter/sort combination
// shares a single entry and merges per the pagination strategy.
type ProductListArgs struct {
	Page       int
	Sort       string
	CategoryID string
}

// productListKey is the portion of ProductListArgs that participates in the
// cache key.
type productListKey struct {
	Sort       string
	CategoryID string
}

// ProductListData is the accumulated product listing plus facet counts.
type ProductListData struct {
	querycache.Page[Product]
	Facets map[string][]string
}

// Snapshot implements querycache.Snapshotter, shadowing the promoted Page
// method so the facets are carried along.
func (d *ProductListData) Snapshot() any {
	facets := make(map[string][]string, len(d.Facets))
	for name, values := range d.Facets {
		facets[name] = slices.Clone(values)
	}
	return &ProductListData{
		Page:   querycache.Page[Product]{Items: d.Items.Clone(), Meta: d.Meta},
		Facets: facets,
	}
}

func newProductStore() *entity.Store[Product] {
	// the server owns the ordering; preserve it
	return entity.NewStore(func(p Product) string { return p.ID })
}

type productListWire struct {
	Data   []productWire       `json:"data"`
	Meta   querycache.PageMeta `json:"meta"`
	Facets map[string][]string `json:"facets"`
}

// ListProducts is the infinite-scroll product listing.
// Wire contract: {"data": [...], "meta": {...}, "facets": {...}}.
var ListProducts = &querycache.Endpoint{
	Name: "products.list",
	Request: func(args any) transport.Request {
		a := args.(ProductListArgs)
		q := url.Values{}
		q.Set("page", strconv.Itoa(a.Page))
		if a.Sort != "" {
			q.Set("sort", a.Sort)
		}
		if a.CategoryID != "" {
			q.Set("category_id", a.CategoryID)
		}
		return transport.Request{Method: http.MethodGet, Path: "/products", Query: q}
	},
	Transform: func(body []byte) (any, error) {
		wire, err := decode[productListWire](body)
		if err != nil {
			return nil, err
		}
		items := newProductStore()
		for _, w := range wire.Data {
			items.AddOne(w.record())
		}
		return &ProductListData{
			Page:   querycache.Page[Product]{Items: items, Meta: wire.Meta},
			Facets: wire.Facets,
		}, nil
	},
	ProvidesTags: func(data any) []cache.Tag {
		d, ok := data.(*ProductListData)
		if !ok || d == nil {
			return nil
		}
		tags := []cache.Tag{cache.CollectionTag(productType)}
		for _, id := range d.Items.IDs() {
			tags = append(tags, cache.EntityTag(productType, id))
		}
		return tags
	},
	KeyArgs: func(args any) any {
		a := args.(ProductListArgs)
		return productListKey{Sort: a.Sort, CategoryID: a.CategoryID}
	},
	ForceRefetch: querycache.PageChanged(func(a ProductListArgs) int { return a.Page }),
	Merge: func(prev, next any) any {
		p, okPrev := prev.(*ProductListData)
		n, okNext := next.(*ProductListData)
		if !okPrev || !okNext {
			return next
		}
		if merged := querycache.MergePages(&p.Page, &n.Page); merged == &n.Page {
			return n
		}
		p.Facets = n.Facets
		return p
	},
}

// ProductDetailArgs identify one product.
type ProductDetailArgs struct {
	ID string
}

// ProductDetailData is the normalized detail view.
type ProductDetailData struct {
	Product Product
}

// Snapshot implements querycache.Snapshotter.
func (d *ProductDetailData) Snapshot() any {
	return &ProductDetailData{Product: d.Product}
}

// GetProduct reads one product. Wire contract: a bare product object.
var GetProduct = &querycache.Endpoint{
	Name: "products.detail",
	Request: func(args any) transport.Request {
		a := args.(ProductDetailArgs)
		return transport.Request{Method: http.MethodGet, Path: "/products/" + a.ID}
	},
	Transform: func(body []byte) (any, error) {
		wire, err := decode[productWire](body)
		if err != nil {
			return nil, err
		}
		return &ProductDetailData{Product: wire.record()}, nil
	},
	ProvidesTags: func(data any) []cache.Tag {
		d, ok := data.(*ProductDetailData)
		if !ok || d == nil {
			return nil
		}
		return []cache.Tag{cache.EntityTag(productType, d.Product.ID)}
	},
}

// CategoriesData is the normalized category tree, in API order.
type CategoriesData struct {
	Items *entity.Store[Category]
}

// Snapshot implements querycache.Snapshotter.
func (d *CategoriesData) Snapshot() any {
	return &CategoriesData{Items: d.Items.Clone()}
}

// GetCategories reads the category tree. Catalog structure rarely changes,
// so it carries the long retention class.
// Wire contract: {"data": [categories]} keyed by category_id.
var GetCategories = &querycache.Endpoint{
	Name:      "categories.tree",
	Retention: cache.RetentionLong,
	Request: func(any) transport.Request {
		return transport.Request{Method: http.MethodGet, Path: "/categories"}
	},
	Transform: func(body []byte) (any, error) {
		env, err := decode[listEnvelope[categoryWire]](body)
		if err != nil {
			return nil, err
		}
		items := entity.NewStore(func(c Category) string { return c.ID })
		for _, w := range env.Data {
			items.AddOne(w.record())
		}
		return &CategoriesData{Items: items}, nil
	},
	ProvidesTags: func(data any) []cache.Tag {
		d, ok := data.(*CategoriesData)
		if !ok || d == nil {
			return nil
		}
		tags := []cache.Tag{cache.CollectionTag(categoryType)}
		for _, id := range d.Items.IDs() {
			tags = append(tags, cache.EntityTag(categoryType, id))
		}
		return tags
	},
}
