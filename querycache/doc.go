// Package querycache implements the client-side query cache: one entry per
// (endpoint, serialized-args) pair, subscriber bookkeeping, a tag graph
// decoupling "what changed" from "what is now stale", and the optimistic
// mutation executor.
//
// # Reads
//
// An Endpoint describes a read operation. Fetch serves fresh payloads from
// the result store, coalesces concurrent identical reads into one transport
// call, and normalizes responses through the endpoint's Transform into the
// {ids, entities} shape. Success registers the entry against the tags the
// result provides. Failure keeps previously cached data so the UI can keep
// displaying something while showing the error.
//
// Published results are frozen: patches and merges run on a snapshot and
// swap it in, so a Result can be read from any goroutine for as long as the
// caller holds it.
//
// # Writes
//
// A Mutation describes a write operation. Its optimistic hook patches cache
// entries synchronously before the network call; every patch carries an
// inverse scoped to the records it touched. Transport success commits and
// invalidates the mutation's declared tags; failure applies the inverses,
// restoring the pre-mutation state exactly. A small, explicitly classified
// set of failures is benign: the intent is already satisfied server-side, so
// only speculative placeholders are discarded and no error surfaces.
//
// # Staleness and GC
//
// Tag invalidation marks entries stale and drops their fresh payloads.
// Stale entries with subscribers refetch in the background; unobserved
// entries are dropped by the sweeper once their payload ages out.
//
// # Pagination
//
// Paginated query families share one cache key across pages (the key
// excludes the page argument). The reset page replaces the accumulated set;
// later pages append. Because the key loses the page, a page change is
// declared through ForceRefetch so it reaches transport instead of being
// served as a duplicate read.
package querycache
