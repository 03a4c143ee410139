// Package registry implements create, update and delete of hosted sites on
// top of a metadata store and an asset store, enforcing ownership.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/eringen/sitebot/assets"
	"github.com/eringen/sitebot/metadata"
	"github.com/eringen/sitebot/site"
)

const maxIDAttempts = 16

// Registry owns every mutation of sites. Content is always written before
// metadata is registered, and removed before metadata is dropped.
type Registry struct {
	meta   metadata.Store
	assets assets.Store
	newID  IDFunc
	now    func() time.Time

	// mu serializes metadata read-modify-write across users.
	mu sync.Mutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithIDFunc replaces the id generator.
func WithIDFunc(fn IDFunc) Option {
	return func(r *Registry) {
		r.newID = fn
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func New(meta metadata.Store, store assets.Store, opts ...Option) *Registry {
	r := &Registry{
		meta:   meta,
		assets: store,
		newID:  NewID,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) timestamp() time.Time {
	return r.now().UTC()
}

// Get returns a site regardless of owner.
func (r *Registry) Get(ctx context.Context, id string) (site.Site, error) {
	return r.meta.Get(ctx, id)
}

// Authorize returns the site if actor owns it, site.ErrNotFound if it does not
// exist and site.ErrForbidden otherwise.
func (r *Registry) Authorize(ctx context.Context, actor site.UserID, id string) (site.Site, error) {
	rec, err := r.meta.Get(ctx, id)
	if err != nil {
		return site.Site{}, err
	}
	if !rec.OwnedBy(actor) {
		return site.Site{}, errors.WithDetails(site.ErrForbidden, "site", id, "actor", int64(actor))
	}
	return rec, nil
}

// ListByOwner returns the owner's sites, most recently updated first.
func (r *Registry) ListByOwner(ctx context.Context, owner site.UserID) ([]site.Site, error) {
	return r.meta.ListByOwner(ctx, owner)
}

// uniqueID draws ids until one is free in both stores. Callers hold mu.
func (r *Registry) uniqueID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := r.newID()
		if err != nil {
			return "", site.Wrap(site.ErrStorage, errors.Errorf("generating id: %w", err))
		}
		_, err = r.meta.Get(ctx, id)
		if err == nil {
			zerolog.Ctx(ctx).Debug().Str("id", id).Int("attempt", attempt).Msg("site id collision, retrying")
			continue
		}
		if !errors.Is(err, site.ErrNotFound) {
			return "", err
		}
		taken, err := r.assets.Exists(ctx, site.FileRef(id))
		if err != nil {
			return "", site.Wrap(site.ErrStorage, err)
		}
		if taken {
			zerolog.Ctx(ctx).Debug().Str("id", id).Int("attempt", attempt).Msg("orphan asset occupies id, retrying")
			continue
		}
		return id, nil
	}
	return "", site.Wrap(site.ErrStorage, errors.Errorf("no free site id after %d attempts", maxIDAttempts))
}

// Create stores content under a fresh id owned by owner.
func (r *Registry) Create(ctx context.Context, owner site.UserID, content []byte) (site.Site, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.uniqueID(ctx)
	if err != nil {
		return site.Site{}, err
	}
	ref := site.FileRef(id)
	if err := r.assets.Put(ctx, ref, content); err != nil {
		return site.Site{}, site.Wrap(site.ErrStorage, err)
	}

	now := r.timestamp()
	rec := site.Site{
		ID:        id,
		Owner:     owner,
		File:      ref,
		SizeBytes: int64(len(content)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.meta.Put(ctx, rec); err != nil {
		if rerr := r.assets.Remove(ctx, ref); rerr != nil {
			zerolog.Ctx(ctx).Error().Err(rerr).Str("id", id).Msg("removing asset after failed metadata write")
		}
		return site.Site{}, err
	}
	zerolog.Ctx(ctx).Info().Str("id", id).Int64("owner", int64(owner)).Int64("size", rec.SizeBytes).Msg("site created")
	return rec, nil
}

// Update replaces the content of id. Identifier, owner and creation time are kept.
func (r *Registry) Update(ctx context.Context, owner site.UserID, id string, content []byte) (site.Site, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.Authorize(ctx, owner, id)
	if err != nil {
		return site.Site{}, err
	}

	previous, err := r.assets.Get(ctx, rec.File)
	if err != nil && !errors.Is(err, site.ErrNotFound) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("id", id).Msg("reading previous content")
		previous = nil
	}
	if err := r.assets.Put(ctx, rec.File, content); err != nil {
		return site.Site{}, site.Wrap(site.ErrStorage, err)
	}

	rec.SizeBytes = int64(len(content))
	rec.UpdatedAt = r.timestamp()
	if err := r.meta.Put(ctx, rec); err != nil {
		if previous != nil {
			if rerr := r.assets.Put(ctx, rec.File, previous); rerr != nil {
				zerolog.Ctx(ctx).Error().Err(rerr).Str("id", id).Msg("restoring content after failed metadata write")
			}
		}
		return site.Site{}, err
	}
	zerolog.Ctx(ctx).Info().Str("id", id).Int64("owner", int64(owner)).Int64("size", rec.SizeBytes).Msg("site updated")
	return rec, nil
}

// Delete removes the metadata and then the content of id. Deleting an id that
// no longer exists returns site.ErrNotFound. Content left behind by a failed
// removal is only logged; uniqueID never hands out its id again.
func (r *Registry) Delete(ctx context.Context, owner site.UserID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.Authorize(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := r.meta.Remove(ctx, id); err != nil {
		return err
	}
	if err := r.assets.Remove(ctx, rec.File); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("id", id).Msg("removing content of deleted site")
	}
	zerolog.Ctx(ctx).Info().Str("id", id).Int64("owner", int64(owner)).Msg("site deleted")
	return nil
}
