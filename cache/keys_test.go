package cache

import (
	"strings"
	"testing"
)

type listArgs struct {
	Sort       string
	CategoryID *string
	Page       int
}

func TestSerializeKey_Deterministic(t *testing.T) {
	s := NewDefaultKeySerializer()

	args := map[string]any{"sort": "price", "page": 2, "filter": "sale"}
	first := s.SerializeKey("products", args)
	for i := 0; i < 50; i++ {
		if got := s.SerializeKey("products", args); got != first {
			t.Fatalf("map serialization is not deterministic: %q vs %q", first, got)
		}
	}
}

func TestSerializeKey_NoArgsHasOneSpelling(t *testing.T) {
	s := NewDefaultKeySerializer()

	bare := s.SerializeKey("wishlist")
	withNil := s.SerializeKey("wishlist", nil)
	if bare != withNil {
		t.Errorf("a nil argument must serialize like no argument: %q vs %q", bare, withNil)
	}
	if bare != "wishlist" {
		t.Errorf("expected the bare endpoint name, got %q", bare)
	}
}

func TestSerializeKey_NilPointerFieldEqualsOmitted(t *testing.T) {
	s := NewDefaultKeySerializer()

	withNilField := s.SerializeKey("products", listArgs{Sort: "price", Page: 1})
	category := "7"
	withField := s.SerializeKey("products", listArgs{Sort: "price", Page: 1, CategoryID: &category})

	if withNilField == withField {
		t.Error("a set pointer field must change the key")
	}

	type withoutCategory struct {
		Sort string
		Page int
	}
	omitted := s.SerializeKey("products", withoutCategory{Sort: "price", Page: 1})
	if withNilField != omitted {
		t.Errorf("a nil pointer field must serialize like an omitted field:\n %q\n %q", withNilField, omitted)
	}
}

func TestSerializeKey_ArgumentOrderMatters(t *testing.T) {
	s := NewDefaultKeySerializer()

	ab := s.SerializeKey("search", "a", "b")
	ba := s.SerializeKey("search", "b", "a")
	if ab == ba {
		t.Error("positional arguments must keep their order in the key")
	}
}

func TestSerializeKey_Collections(t *testing.T) {
	s := NewDefaultKeySerializer()

	cases := []struct {
		name string
		arg  any
		want string
	}{
		{"string slice", []string{"a", "b"}, "search::slice[2]:{a,b}"},
		{"nil slice", []string(nil), "search::slice[0]:{}"},
		{"empty slice", []string{}, "search::slice[0]:{}"},
		{"sorted map", map[string]int{"b": 2, "a": 1}, "search::map[2]:{a=1,b=2}"},
		{"bool", true, "search::true"},
		{"int", 42, "search::42"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.SerializeKey("search", tc.arg); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestSerializeKey_LongKeyCollapsesToFingerprint(t *testing.T) {
	s := NewDefaultKeySerializer()

	long := s.SerializeKey("search", strings.Repeat("x", 400))
	if len(long) > maxKeyLength {
		t.Errorf("fingerprinted key still exceeds the bound: %d chars", len(long))
	}
	if !strings.HasPrefix(long, "search"+KeySeparator+"#") {
		t.Errorf("the fingerprint must stay namespaced by endpoint, got %q", long)
	}

	same := s.SerializeKey("search", strings.Repeat("x", 400))
	other := s.SerializeKey("search", strings.Repeat("y", 400))
	if long != same {
		t.Error("equal long inputs must fingerprint identically")
	}
	if long == other {
		t.Error("different long inputs must fingerprint differently")
	}
}

func TestToSnake(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"WishlistItem", "wishlist_item"},
		{"wishlist_item", "wishlist_item"},
		{"wishlist-item", "wishlist_item"},
		{"HTTPServer", "http_server"},
		{"Product2Detail", "product_2_detail"},
		{"*main.Product", "main_product"},
		{"", ""},
		{"__weird__", "weird"},
	}
	for _, tc := range cases {
		if got := toSnake(tc.in); got != tc.want {
			t.Errorf("toSnake(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
