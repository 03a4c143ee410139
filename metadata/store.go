// Package metadata persists Site records keyed by id.
//
// Two backends exist: a JSON file rewritten in full on every mutation (the
// default) and a SQLite database. Both are opened explicitly and must be closed.
package metadata

import (
	"context"
	"path/filepath"
	"sort"

	"gitlab.com/tozd/go/errors"

	"github.com/eringen/sitebot/site"
)

// Store is the durable id -> Site collection.
type Store interface {
	// Get returns site.ErrNotFound when id is absent.
	Get(ctx context.Context, id string) (site.Site, error)
	// Put inserts or replaces the record with the same id.
	Put(ctx context.Context, s site.Site) error
	// Remove deletes id. Removing an absent id is not an error.
	Remove(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, owner site.UserID) ([]site.Site, error)
	List(ctx context.Context) ([]site.Site, error)
	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
)

// Open opens the store for backend inside dir. strict makes the JSON backend
// report failed saves instead of only logging them.
func Open(ctx context.Context, backend Backend, dir string, strict bool) (Store, error) {
	switch backend {
	case "", BackendJSON:
		return OpenJSON(ctx, filepath.Join(dir, "sites.json"), WithStrict(strict))
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dir, "sites.db"))
	default:
		return nil, errors.Errorf("unknown metadata backend: %s", backend)
	}
}

// sortByUpdated orders sites newest first, ties broken by id.
func sortByUpdated(sites []site.Site) {
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].UpdatedAt.Equal(sites[j].UpdatedAt) {
			return sites[i].ID < sites[j].ID
		}
		return sites[i].UpdatedAt.After(sites[j].UpdatedAt)
	})
}
