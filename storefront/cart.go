package storefront

import (
	"net/http"

	"github.com/soukhub/go-storecache/cache"
	"github.com/soukhub/go-storecache/entity"
	"github.com/soukhub/go-storecache/querycache"
	"github.com/soukhub/go-storecache/transport"
)

const cartLineType = "cart_line"

// cartSummaryScope tags the server-computed totals block, which coupon and
// shipping mutations change without touching any line.
const cartSummaryScope = "summary"

// CartData is the normalized cart: lines in API order plus totals.
type CartData struct {
	Lines   *entity.Store[CartLine]
	Summary CartSummary
}

// Snapshot implements querycache.Snapshotter.
func (d *CartData) Snapshot() any {
	return &CartData{Lines: d.Lines.Clone(), Summary: d.Summary}
}

func newCartStore() *entity.Store[CartLine] {
	return entity.NewStore(func(l CartLine) string { return l.ID })
}

type cartWire struct {
	Data struct {
		Lines   []cartLineWire `json:"lines"`
		Summary CartSummary    `json:"summary"`
	} `json:"data"`
}

// GetCart reads the cart.
// Wire contract: {"data": {"lines": [...], "summary": {...}}}.
var GetCart = &querycache.Endpoint{
	Name: "cart.get",
	Request: func(any) transport.Request {
		return transport.Request{Method: http.MethodGet, Path: "/cart"}
	},
	Transform: func(body []byte) (any, error) {
		wire, err := decode[cartWire](body)
		if err != nil {
			return nil, err
		}
		lines := newCartStore()
		for _, w := range wire.Data.Lines {
			lines.AddOne(w.record())
		}
		return &CartData{Lines: lines, Summary: wire.Data.Summary}, nil
	},
	ProvidesTags: func(data any) []cache.Tag {
		d, ok := data.(*CartData)
		if !ok || d == nil {
			return nil
		}
		tags := []cache.Tag{
			cache.CollectionTag(cartLineType),
			cache.ScopedTag("cart", cartSummaryScope),
		}
		for _, id := range d.Lines.IDs() {
			tags = append(tags, cache.EntityTag(cartLineType, id))
		}
		return tags
	},
}

// UpdateCartQtyArgs identify the line and its new quantity.
type UpdateCartQtyArgs struct {
	LineID string
	Qty    int
}

// UpdateCartQty changes a line's quantity. The optimistic patch rewrites the
// line and recomputes the subtotal locally; shipping and total stay as-is
// until the server's authoritative summary arrives via invalidation.
var UpdateCartQty = &querycache.Mutation{
	Name: "cart.update_qty",
	Request: func(args any) transport.Request {
		a := args.(UpdateCartQtyArgs)
		return transport.Request{
			Method: http.MethodPut,
			Path:   "/cart/lines/" + a.LineID,
			Body:   map[string]int{"qty": a.Qty},
		}
	},
	Optimistic: func(p *querycache.Patcher, args any) {
		a := args.(UpdateCartQtyArgs)

		var priorLine CartLine
		var priorSummary CartSummary
		var had bool
		p.Update(GetCart, nil,
			func(data any) any {
				d, ok := data.(*CartData)
				if !ok || d == nil {
					return data
				}
				line, ok := d.Lines.SelectByID(a.LineID)
				if !ok {
					return d
				}
				priorLine = querycache.CopyOf(line)
				priorSummary = d.Summary
				had = true

				d.Lines.UpdateOne(a.LineID, func(l CartLine) CartLine {
					l.Qty = a.Qty
					return l
				})
				subtotal := 0.0
				for _, l := range d.Lines.SelectAll() {
					subtotal += float64(l.Qty) * l.UnitPrice
				}
				d.Summary.Subtotal = subtotal
				d.Summary.Total = subtotal + d.Summary.Shipping
				return d
			},
			func(data any) any {
				d, ok := data.(*CartData)
				if !ok || d == nil || !had {
					return data
				}
				d.Lines.UpsertOne(priorLine)
				d.Summary = priorSummary
				return d
			},
		)
	},
	InvalidatesTags: func(args, _ any) []cache.Tag {
		a := args.(UpdateCartQtyArgs)
		return []cache.Tag{
			cache.EntityTag(cartLineType, a.LineID),
			cache.ScopedTag("cart", cartSummaryScope),
		}
	},
}

// ApplyCouponArgs carry the coupon code.
type ApplyCouponArgs struct {
	Code string
}

// ApplyCoupon applies a coupon. Totals are entirely server-computed, so
// there is no optimistic phase; the summary scope invalidation refetches the
// cart once the server answers.
var ApplyCoupon = &querycache.Mutation{
	Name: "cart.apply_coupon",
	Request: func(args any) transport.Request {
		a := args.(ApplyCouponArgs)
		return transport.Request{
			Method: http.MethodPost,
			Path:   "/cart/coupon",
			Body:   map[string]string{"code": a.Code},
		}
	},
	InvalidatesTags: func(_, _ any) []cache.Tag {
		return []cache.Tag{cache.ScopedTag("cart", cartSummaryScope)}
	},
}
