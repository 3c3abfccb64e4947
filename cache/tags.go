package cache

// TagKind distinguishes the three shapes of dependency label.
type TagKind uint8

const (
	// TagEntity labels a single record: (type, id).
	TagEntity TagKind = iota + 1
	// TagCollection labels every collection query over a type.
	TagCollection
	// TagScoped labels a type plus a free-form discriminator, for entries
	// that are neither a single record nor the whole collection
	// (e.g. "orders in state pending").
	TagScoped
)

// Tag is an abstract dependency label. Queries declare the tags their results
// provide; mutations declare the tags they invalidate. Tags are comparable
// values and safe to use as map keys.
//
// Entity types are normalized to snake_case at construction, so
// EntityTag("WishlistItem", "42") and EntityTag("wishlist_item", "42")
// identify the same dependency.
type Tag struct {
	Kind TagKind
	Type string
	ID   string
}

// EntityTag labels the record of entityType with the given id.
func EntityTag(entityType, id string) Tag {
	return Tag{Kind: TagEntity, Type: toSnake(entityType), ID: id}
}

// CollectionTag labels any collection query over entityType.
func CollectionTag(entityType string) Tag {
	return Tag{Kind: TagCollection, Type: toSnake(entityType)}
}

// ScopedTag labels a subset of entityType identified by a discriminator.
func ScopedTag(entityType, discriminator string) Tag {
	return Tag{Kind: TagScoped, Type: toSnake(entityType), ID: discriminator}
}

// String renders the tag for logs and diagnostics.
func (t Tag) String() string {
	switch t.Kind {
	case TagEntity:
		return t.Type + KeySeparator + t.ID
	case TagCollection:
		return t.Type + KeySeparator + "LIST"
	case TagScoped:
		return t.Type + KeySeparator + "scope" + KeySeparator + t.ID
	default:
		return "invalid"
	}
}

// Zero reports whether the tag is the zero value.
func (t Tag) Zero() bool {
	return t.Kind == 0
}
