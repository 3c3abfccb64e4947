// Package storefront instantiates the query-cache pattern for the storefront
// feature slices: wishlist, addresses, products, and cart. Each slice is a
// thin declaration of wire shape, normalization, tags, and optimistic
// handlers; the consistency machinery lives in querycache.
package storefront

import (
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Product is the normalized catalog record.
type Product struct {
	ID         string
	Name       string
	Price      float64
	InWishlist bool
}

// Category is the normalized catalog tree node. The wire shape keys it by
// category_id; the transform maps that into the uniform id.
type Category struct {
	ID       string
	Name     string
	ParentID string
}

// WishlistItem is one wishlist row. Pending marks an optimistic placeholder
// that the server has not confirmed yet.
type WishlistItem struct {
	ID      string
	Name    string
	Price   float64
	AddedAt time.Time
	Pending bool
}

// Address is one saved delivery address.
type Address struct {
	ID      string
	City    string
	Default bool
}

// CartLine is one cart row, keyed by line-item id rather than product id.
type CartLine struct {
	ID        string
	ProductID string
	Qty       int
	UnitPrice float64
}

// CartSummary is the server-computed totals block.
type CartSummary struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// Wire shapes. One contract per endpoint, decoded with goccy/go-json; the
// transform is the only place a server shape is interpreted.

type productWire struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	InWishlist bool    `json:"in_wishlist"`
}

func (w productWire) record() Product {
	return Product{
		ID:         strconv.FormatInt(w.ID, 10),
		Name:       w.Name,
		Price:      w.Price,
		InWishlist: w.InWishlist,
	}
}

type categoryWire struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	ParentID   int64  `json:"parent_id"`
}

func (w categoryWire) record() Category {
	parent := ""
	if w.ParentID != 0 {
		parent = strconv.FormatInt(w.ParentID, 10)
	}
	return Category{
		ID:       strconv.FormatInt(w.CategoryID, 10),
		Name:     w.Name,
		ParentID: parent,
	}
}

type wishlistItemWire struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	Price   float64   `json:"price"`
	AddedAt time.Time `json:"added_at"`
}

func (w wishlistItemWire) record() WishlistItem {
	return WishlistItem{
		ID:      strconv.FormatInt(w.ID, 10),
		Name:    w.Name,
		Price:   w.Price,
		AddedAt: w.AddedAt,
	}
}

type addressWire struct {
	ID      int64  `json:"id"`
	City    string `json:"city"`
	Default bool   `json:"default"`
}

func (w addressWire) record() Address {
	return Address{
		ID:      strconv.FormatInt(w.ID, 10),
		City:    w.City,
		Default: w.Default,
	}
}

type cartLineWire struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"product_id"`
	Qty       int     `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
}

func (w cartLineWire) record() CartLine {
	return CartLine{
		ID:        strconv.FormatInt(w.ID, 10),
		ProductID: strconv.FormatInt(w.ProductID, 10),
		Qty:       w.Qty,
		UnitPrice: w.UnitPrice,
	}
}

// listEnvelope is the {"data": [...]} wrapper the list endpoints use.
type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

// objectEnvelope is the {"data": {...}} wrapper the mutation responses use.
type objectEnvelope[T any] struct {
	Data T `json:"data"`
}

func decode[T any](body []byte) (T, error) {
	var v T
	err := json.Unmarshal(body, &v)
	return v, err
}
