package storefront

import (
	"context"
	"net/http"
	"reflect"
	"testing"

	"github.com/soukhub/go-storecache/querycache"
	"github.com/soukhub/go-storecache/transport"
)

func seedCart(t *testing.T, c *querycache.Cache, tr *stubTransport) *CartData {
	t.Helper()
	tr.respondWith(http.MethodGet, "/cart", fixture(t, "cart.json"))
	res, err := c.Fetch(context.Background(), GetCart, nil)
	if err != nil {
		t.Fatalf("seeding cart failed: %v", err)
	}
	return res.Data.(*CartData)
}

func TestGetCart_Normalizes(t *testing.T) {
	c, tr := newFeatureCache(t)
	data := seedCart(t, c, tr)

	want := []string{"501", "502"}
	if got := data.Lines.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected lines in API order %v, got %v", want, got)
	}
	line, _ := data.Lines.SelectByID("502")
	if line.ProductID != "14" || line.Qty != 2 || line.UnitPrice != 210.0 {
		t.Errorf("unexpected normalized line: %+v", line)
	}
	if data.Summary.Total != 569.0 {
		t.Errorf("unexpected summary: %+v", data.Summary)
	}
}

func TestUpdateCartQty_RecomputesSubtotalOptimistically(t *testing.T) {
	c, tr := newFeatureCache(t)
	seedCart(t, c, tr)

	release := make(chan struct{})
	tr.route(http.MethodPut, "/cart/lines/501", func(transport.Request) ([]byte, error) {
		<-release
		return []byte(`{}`), nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := c.Mutate(context.Background(), UpdateCartQty, UpdateCartQtyArgs{LineID: "501", Qty: 3})
		done <- err
	}()

	waitUntil(t, "optimistic quantity patch", func() bool {
		d := c.Read(GetCart, nil).Data.(*CartData)
		line, _ := d.Lines.SelectByID("501")
		return line.Qty == 3
	})

	d := c.Read(GetCart, nil).Data.(*CartData)
	// 3*129 + 2*210, shipping untouched until the server answers
	if d.Summary.Subtotal != 807.0 {
		t.Errorf("expected the locally recomputed subtotal, got %+v", d.Summary)
	}
	if d.Summary.Shipping != 20.0 || d.Summary.Total != 827.0 {
		t.Errorf("shipping stays, total follows the subtotal, got %+v", d.Summary)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateCartQty_FailureRestoresLineAndSummary(t *testing.T) {
	c, tr := newFeatureCache(t)
	data := seedCart(t, c, tr)
	beforeLines := data.Lines.Clone().SelectAll()
	beforeSummary := data.Summary

	tr.failWith(http.MethodPut, "/cart/lines/501", http.StatusInternalServerError)

	if _, err := c.Mutate(context.Background(), UpdateCartQty, UpdateCartQtyArgs{LineID: "501", Qty: 5}); err == nil {
		t.Fatal("expected the transport error to surface")
	}

	d := c.Read(GetCart, nil).Data.(*CartData)
	if !reflect.DeepEqual(d.Lines.SelectAll(), beforeLines) {
		t.Errorf("the line must be restored, got %+v", d.Lines.SelectAll())
	}
	if d.Summary != beforeSummary {
		t.Errorf("the summary must be restored, got %+v", d.Summary)
	}
}

func TestUpdateCartQty_MissingLineIsANoOp(t *testing.T) {
	c, tr := newFeatureCache(t)
	data := seedCart(t, c, tr)
	before := data.Lines.Clone().SelectAll()

	tr.respondWith(http.MethodPut, "/cart/lines/999", []byte(`{}`))

	if _, err := c.Mutate(context.Background(), UpdateCartQty, UpdateCartQtyArgs{LineID: "999", Qty: 4}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := c.Read(GetCart, nil).Data.(*CartData).Lines.SelectAll()
	if !reflect.DeepEqual(after, before) {
		t.Errorf("a patch against an unknown line must change nothing, got %+v", after)
	}
}

func TestUpdateCartQty_InvalidatesLineAndSummary(t *testing.T) {
	c, tr := newFeatureCache(t)
	seedCart(t, c, tr)

	tr.respondWith(http.MethodPut, "/cart/lines/501", []byte(`{}`))

	if _, err := c.Mutate(context.Background(), UpdateCartQty, UpdateCartQtyArgs{LineID: "501", Qty: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gets := tr.count(http.MethodGet, "/cart")
	if _, err := c.Fetch(context.Background(), GetCart, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.count(http.MethodGet, "/cart") != gets+1 {
		t.Error("the committed update must invalidate the cart entry")
	}
}

func TestApplyCoupon_RefetchesSummaryScope(t *testing.T) {
	c, tr := newFeatureCache(t)
	data := seedCart(t, c, tr)

	tr.respondWith(http.MethodPost, "/cart/coupon", []byte(`{}`))

	before := data.Lines.Clone().SelectAll()
	if _, err := c.Mutate(context.Background(), ApplyCoupon, ApplyCouponArgs{Code: "SAVE10"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// no optimistic phase: the cached lines are untouched until the refetch
	after := c.Read(GetCart, nil).Data.(*CartData).Lines.SelectAll()
	if !reflect.DeepEqual(after, before) {
		t.Errorf("coupon application has no optimistic patch, got %+v", after)
	}

	gets := tr.count(http.MethodGet, "/cart")
	if _, err := c.Fetch(context.Background(), GetCart, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.count(http.MethodGet, "/cart") != gets+1 {
		t.Error("the summary scope invalidation must force a cart refetch")
	}
}
