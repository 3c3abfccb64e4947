package storefront

import (
	"net/http"
	"time"

	"github.com/soukhub/go-storecache/cache"
	"github.com/soukhub/go-storecache/entity"
	"github.com/soukhub/go-storecache/querycache"
	"github.com/soukhub/go-storecache/transport"
)

const wishlistType = "wishlist_item"

// WishlistData is the normalized wishlist: newest additions first.
type WishlistData struct {
	Items *entity.Store[WishlistItem]
}

// Snapshot implements querycache.Snapshotter.
func (d *WishlistData) Snapshot() any {
	return &WishlistData{Items: d.Items.Clone()}
}

func newWishlistStore() *entity.Store[WishlistItem] {
	return entity.NewSortedStore(
		func(item WishlistItem) string { return item.ID },
		func(a, b WishlistItem) int {
			switch {
			case a.AddedAt.After(b.AddedAt):
				return -1
			case b.AddedAt.After(a.AddedAt):
				return 1
			default:
				return 0
			}
		},
	)
}

// GetWishlist reads the full wishlist. Wire contract: {"data": [items]}.
var GetWishlist = &querycache.Endpoint{
	Name: "wishlist.list",
	Request: func(any) transport.Request {
		return transport.Request{Method: http.MethodGet, Path: "/wishlist"}
	},
	Transform: func(body []byte) (any, error) {
		env, err := decode[listEnvelope[wishlistItemWire]](body)
		if err != nil {
			return nil, err
		}
		items := newWishlistStore()
		for _, w := range env.Data {
			items.AddOne(w.record())
		}
		return &WishlistData{Items: items}, nil
	},
	ProvidesTags: func(data any) []cache.Tag {
		d, ok := data.(*WishlistData)
		if !ok || d == nil {
			return nil
		}
		tags := []cache.Tag{cache.CollectionTag(wishlistType)}
		for _, id := range d.Items.IDs() {
			tags = append(tags, cache.EntityTag(wishlistType, id))
		}
		return tags
	},
}

// AddToWishlistArgs identifies the product to add.
type AddToWishlistArgs struct {
	ProductID string
}

// AddToWishlist adds a product to the wishlist. The optimistic phase inserts
// a pending placeholder and flips the product detail's in-wishlist flag;
// commit replaces the placeholder with the server record. A 409 means the
// item is already in the wishlist server-side: the placeholder is discarded
// but the flag stays, and no error surfaces.
var AddToWishlist = &querycache.Mutation{
	Name: "wishlist.add",
	Request: func(args any) transport.Request {
		a := args.(AddToWishlistArgs)
		return transport.Request{
			Method: http.MethodPost,
			Path:   "/wishlist",
			Body:   map[string]string{"product_id": a.ProductID},
		}
	},
	Transform: func(body []byte) (any, error) {
		env, err := decode[objectEnvelope[wishlistItemWire]](body)
		if err != nil {
			return nil, err
		}
		return env.Data.record(), nil
	},
	Optimistic: func(p *querycache.Patcher, args any) {
		a := args.(AddToWishlistArgs)

		p.Update(GetWishlist, nil,
			func(data any) any {
				d, ok := data.(*WishlistData)
				if !ok || d == nil {
					return data
				}
				d.Items.AddOne(WishlistItem{
					ID:      a.ProductID,
					AddedAt: time.Now(),
					Pending: true,
				})
				return d
			},
			func(data any) any {
				d, ok := data.(*WishlistData)
				if !ok || d == nil {
					return data
				}
				d.Items.RemoveOne(a.ProductID)
				return d
			},
		)

		var prior Product
		var had bool
		p.Update(GetProduct, ProductDetailArgs{ID: a.ProductID},
			func(data any) any {
				d, ok := data.(*ProductDetailData)
				if !ok || d == nil {
					return data
				}
				prior = querycache.CopyOf(d.Product)
				had = true
				d.Product.InWishlist = true
				return d
			},
			func(data any) any {
				d, ok := data.(*ProductDetailData)
				if !ok || d == nil || !had {
					return data
				}
				d.Product = prior
				return d
			},
		)
	},
	OnCommit: func(p *querycache.Patcher, args any, result any) {
		item, ok := result.(WishlistItem)
		if !ok {
			return
		}
		a := args.(AddToWishlistArgs)
		p.Write(GetWishlist, nil, func(data any) any {
			d, ok := data.(*WishlistData)
			if !ok || d == nil {
				return data
			}
			// the authoritative record supersedes the placeholder
			d.Items.RemoveOne(a.ProductID)
			d.Items.UpsertOne(item)
			return d
		})
	},
	Benign: func(terr *transport.Error, _ any) bool {
		// already in wishlist: the intent is satisfied server-side
		return terr.Status == http.StatusConflict
	},
	OnBenign: func(p *querycache.Patcher, args any) {
		a := args.(AddToWishlistArgs)
		p.Write(GetWishlist, nil, func(data any) any {
			d, ok := data.(*WishlistData)
			if !ok || d == nil {
				return data
			}
			d.Items.RemoveOne(a.ProductID)
			return d
		})
	},
	InvalidatesTags: func(_, _ any) []cache.Tag {
		return []cache.Tag{cache.CollectionTag(wishlistType)}
	},
}

// RemoveFromWishlistArgs identifies the wishlist row to remove.
type RemoveFromWishlistArgs struct {
	ID string
}

// RemoveFromWishlist deletes a wishlist row, optimistically removing it from
// the cached list and unflagging the product detail.
var RemoveFromWishlist = &querycache.Mutation{
	Name: "wishlist.remove",
	Request: func(args any) transport.Request {
		a := args.(RemoveFromWishlistArgs)
		return transport.Request{
			Method: http.MethodDelete,
			Path:   "/wishlist/" + a.ID,
		}
	},
	Optimistic: func(p *querycache.Patcher, args any) {
		a := args.(RemoveFromWishlistArgs)

		var prior WishlistItem
		var had bool
		p.Update(GetWishlist, nil,
			func(data any) any {
				d, ok := data.(*WishlistData)
				if !ok || d == nil {
					return data
				}
				if item, ok := d.Items.SelectByID(a.ID); ok {
					prior = querycache.CopyOf(item)
					had = true
				}
				d.Items.RemoveOne(a.ID)
				return d
			},
			func(data any) any {
				d, ok := data.(*WishlistData)
				if !ok || d == nil || !had {
					return data
				}
				d.Items.UpsertOne(prior)
				return d
			},
		)

		var priorProduct Product
		var hadProduct bool
		p.Update(GetProduct, ProductDetailArgs{ID: a.ID},
			func(data any) any {
				d, ok := data.(*ProductDetailData)
				if !ok || d == nil {
					return data
				}
				priorProduct = querycache.CopyOf(d.Product)
				hadProduct = true
				d.Product.InWishlist = false
				return d
			},
			func(data any) any {
				d, ok := data.(*ProductDetailData)
				if !ok || d == nil || !hadProduct {
					return data
				}
				d.Product = priorProduct
				return d
			},
		)
	},
	InvalidatesTags: func(args, _ any) []cache.Tag {
		a := args.(RemoveFromWishlistArgs)
		return []cache.Tag{
			cache.EntityTag(wishlistType, a.ID),
			cache.CollectionTag(wishlistType),
		}
	},
}
