package cache

// ResultStore holds the fresh normalized payload per cache key. A payload
// that has aged out of its retention window disappears from the store; the
// query cache treats a missing payload as "no longer fresh" and goes back to
// transport. The store bounds memory: it may evict under pressure, and
// callers must tolerate any Get returning a miss.
//
// It is exported so alternate backends can replace the default sturdyc
// implementation.
type ResultStore interface {
	// Get returns the fresh payload for key, if any.
	Get(key string) (any, bool)

	// Set stores the payload under key with the retention window of class.
	Set(key string, value any, class RetentionClass)

	// Delete drops the payload for key, forcing the next read to refetch.
	Delete(key string)
}
