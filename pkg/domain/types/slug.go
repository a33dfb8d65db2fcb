package types

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

// MaxSlugLength bounds category and department IDs. They end up in
// Firestore field values and Slack messages.
const MaxSlugLength = 64

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// checkSlug reports whether id is a lowercase, hyphen separated slug. kind
// names the ID in the error, e.g. "category".
func checkSlug(kind, id string) error {
	switch {
	case id == "":
		return goerr.New(kind+" ID is required", goerr.V("kind", kind))
	case len(id) > MaxSlugLength:
		return goerr.New(kind+" ID is too long",
			goerr.V("kind", kind), goerr.V("id", id), goerr.V("max", MaxSlugLength))
	case !slugPattern.MatchString(id):
		return goerr.New(kind+" ID must be lowercase letters and digits joined by single hyphens",
			goerr.V("kind", kind), goerr.V("id", id))
	}
	return nil
}
