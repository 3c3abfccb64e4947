package querycache

import (
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/soukhub/go-storecache/cache"
)

// tagGraph is the many-to-many mapping from tags to the cache keys registered
// against them. Registration happens at fetch success; lookups happen when a
// mutation invalidates its declared tag set.
type tagGraph struct {
	byTag *xsync.MapOf[cache.Tag, *xsync.MapOf[string, struct{}]]
}

func newTagGraph() *tagGraph {
	return &tagGraph{byTag: xsync.NewMapOf[cache.Tag, *xsync.MapOf[string, struct{}]]()}
}

// register links key to every tag.
func (g *tagGraph) register(key string, tags []cache.Tag) {
	for _, tag := range tags {
		if tag.Zero() {
			continue
		}
		keys, _ := g.byTag.LoadOrCompute(tag, func() *xsync.MapOf[string, struct{}] {
			return xsync.NewMapOf[string, struct{}]()
		})
		keys.Store(key, struct{}{})
	}
}

// unregister removes key from every tag it was registered under.
func (g *tagGraph) unregister(key string, tags []cache.Tag) {
	for _, tag := range tags {
		if keys, ok := g.byTag.Load(tag); ok {
			keys.Delete(key)
		}
	}
}

// reregister swaps key's registration from prev to next in one step.
func (g *tagGraph) reregister(key string, prev, next []cache.Tag) {
	g.unregister(key, prev)
	g.register(key, next)
}

// keysFor returns every key registered against any of the tags, deduplicated.
// A collection tag only reaches entries that registered it explicitly; it
// never implicitly covers entries keyed by a specific id.
func (g *tagGraph) keysFor(tags []cache.Tag) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tag := range tags {
		keys, ok := g.byTag.Load(tag)
		if !ok {
			continue
		}
		keys.Range(func(key string, _ struct{}) bool {
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				out = append(out, key)
			}
			return true
		})
	}
	return out
}
