package querycache

import (
	"github.com/soukhub/go-storecache/cache"
	"github.com/soukhub/go-storecache/transport"
)

// Endpoint describes one read operation: how to build its request, how to
// normalize its wire shape, which tags its results provide, and how fresh
// its payloads stay. Each endpoint pins exactly one wire contract in
// Transform; there is no runtime shape sniffing.
type Endpoint struct {
	// Name namespaces the cache keys for this endpoint. Required, unique.
	Name string

	// Retention selects the freshness window class.
	Retention cache.RetentionClass

	// Request builds the transport request for the given arguments. Required.
	Request func(args any) transport.Request

	// Transform decodes the raw wire payload into the normalized shape
	// ({ids, entities} plus endpoint metadata). Required.
	Transform func(body []byte) (any, error)

	// ProvidesTags declares the tags the normalized result depends on, as a
	// pure function of the result. Collection endpoints return one entity tag
	// per member plus the collection tag; detail endpoints return the entity
	// tag only. Optional; an endpoint without tags is never invalidated.
	ProvidesTags func(data any) []cache.Tag

	// KeyArgs reduces args to the portion that participates in the cache
	// key. Paginated families use this to exclude the page number so all
	// pages of one logical scroll share an entry. Optional.
	KeyArgs func(args any) any

	// ForceRefetch reports whether the argument change between the entry's
	// last fetch and this one must reach transport even though the key is
	// unchanged. Paginated families return true on page change. Optional.
	ForceRefetch func(prevArgs, nextArgs any) bool

	// Merge combines a newly fetched result into the existing one. Nil means
	// every fetch replaces. Paginated families append for page > 1. The cache
	// hands prev in as a private snapshot; Merge may mutate it freely.
	Merge func(prev, next any) any
}

func (e *Endpoint) validate() error {
	if e == nil {
		return &EndpointError{Message: "endpoint is nil"}
	}
	if e.Name == "" {
		return &EndpointError{Message: "endpoint name is required"}
	}
	if e.Request == nil {
		return &EndpointError{Name: e.Name, Message: "Request is required"}
	}
	if e.Transform == nil {
		return &EndpointError{Name: e.Name, Message: "Transform is required"}
	}
	return nil
}

// EndpointError reports a misconfigured endpoint or mutation descriptor.
type EndpointError struct {
	Name    string
	Message string
}

// Error implements the error interface.
func (e *EndpointError) Error() string {
	if e.Name == "" {
		return "endpoint: " + e.Message
	}
	return "endpoint " + e.Name + ": " + e.Message
}
