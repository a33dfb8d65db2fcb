package types

// CategoryID is the slug of an issue category declared in the municipality
// config, e.g. "road" or "street-lighting". Issues may only be filed under
// a configured category.
type CategoryID string

func (c CategoryID) Validate() error { return checkSlug("category", string(c)) }

func (c CategoryID) String() string { return string(c) }
