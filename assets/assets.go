// Package assets stores the uploaded HTML content of each site, keyed by the
// site's file reference ("<id>.html").
package assets

import (
	"context"
	"regexp"

	"gitlab.com/tozd/go/errors"

	"github.com/eringen/sitebot/site"
)

// Store persists content by reference.
type Store interface {
	// Put creates or replaces the content at ref.
	Put(ctx context.Context, ref string, content []byte) error
	// Get returns site.ErrNotFound when ref is absent.
	Get(ctx context.Context, ref string) ([]byte, error)
	Exists(ctx context.Context, ref string) (bool, error)
	// Remove deletes ref. A missing ref is not an error.
	Remove(ctx context.Context, ref string) error
}

// ErrInvalidRef is returned for references that could escape the store.
var ErrInvalidRef = errors.Base("invalid asset reference")

var refPattern = regexp.MustCompile(`^[a-z0-9]{1,32}\.html$`)

// ValidRef reports whether ref is a well-formed site file reference.
func ValidRef(ref string) bool {
	return refPattern.MatchString(ref)
}

func checkRef(ref string) error {
	if !ValidRef(ref) {
		return errors.WithDetails(ErrInvalidRef, "ref", ref)
	}
	return nil
}

// notFound reports a missing ref in the shared taxonomy.
func notFound(ref string) error {
	return errors.WithDetails(site.ErrNotFound, "ref", ref)
}
