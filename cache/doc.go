// Package cache provides the key serialization, tag model, and configuration
// shared by the query cache layers.
//
// # Overview
//
// The package exports three building blocks:
//
//   - KeySerializer: builds canonical cache keys from an endpoint name and its
//     arguments, so that distinct call sites producing logically identical
//     queries resolve to the same cache entry
//   - Tag: the dependency label linking cache entries to the mutations that
//     invalidate them
//   - ResultStore: the payload store interface backed by the sturdyc adapter
//     in internal/cacheinfra
//
// # Key Serialization Strategy
//
// The default key serializer uses reflection to handle argument types
// deterministically:
//
//   - Basic types: direct string representation
//   - Pointers: dereferenced, nil pointers normalize to the same token as an
//     omitted value
//   - Slices/arrays: recursive serialization of elements
//   - Maps: sorted key-value pairs for deterministic output
//   - Structs: exported fields with name:value pairs
//   - Complex types: JSON fallback
//
// Keys that grow past a bound are collapsed to an xxhash fingerprint so
// backends never see unbounded key material.
//
// # Tags
//
// A Tag is one of three kinds: an entity tag (type + id), a collection tag
// (type + the LIST sentinel), or a scoped tag (type + free-form
// discriminator). Collection queries register an entity tag per member plus
// the collection tag; detail queries register only the entity tag. A
// collection invalidation never implicitly reaches detail entries; anything
// that should invalidate both must declare both.
//
// # See Also
//
// For the cache entries, subscriptions, and the optimistic mutation executor
// built on these types, see the querycache package.
package cache
