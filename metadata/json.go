package metadata

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/eringen/sitebot/site"
)

// JSONStore keeps every site in memory and rewrites the whole file after each
// mutation. The in-memory map is authoritative; the file is never re-read
// after Open.
type JSONStore struct {
	path   string
	strict bool

	mu    sync.RWMutex
	sites map[string]site.Site
	dirty bool // memory holds changes a failed save did not write
}

// fileRecord reads both the current layout and older files that stored the
// size as a kilobyte string under sizeKB.
type fileRecord struct {
	site.Site
	SizeKB json.RawMessage `json:"sizeKB,omitempty"`
}

func (r fileRecord) sizeBytes() (int64, bool) {
	if len(r.SizeKB) == 0 {
		return 0, false
	}
	raw := strings.Trim(string(r.SizeKB), `"`)
	kb, err := strconv.ParseFloat(raw, 64)
	if err != nil || kb < 0 {
		return 0, false
	}
	return int64(math.Round(kb * 1024)), true
}

// JSONOption configures a JSONStore.
type JSONOption func(*JSONStore)

// WithStrict makes failed saves return site.ErrStorage instead of only being logged.
func WithStrict(strict bool) JSONOption {
	return func(s *JSONStore) {
		s.strict = strict
	}
}

// OpenJSON loads the collection at path. A missing or unreadable file yields
// an empty collection; only failing to create the parent directory is an error.
func OpenJSON(ctx context.Context, path string, opts ...JSONOption) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Errorf("creating metadata directory: %w", err)
	}
	s := &JSONStore{
		path:  path,
		sites: make(map[string]site.Site),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load(ctx)
	return s, nil
}

func (s *JSONStore) load(ctx context.Context) {
	logger := zerolog.Ctx(ctx)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Err(err).Str("path", s.path).Msg("reading metadata, starting empty")
		}
		return
	}
	if len(data) == 0 {
		return
	}
	loaded := make(map[string]fileRecord)
	if err := json.Unmarshal(data, &loaded); err != nil {
		logger.Warn().Err(err).Str("path", s.path).Msg("metadata file is corrupt, starting empty")
		return
	}
	for id, fr := range loaded {
		rec := fr.Site
		if size, ok := fr.sizeBytes(); ok && rec.SizeBytes == 0 {
			rec.SizeBytes = size
		}
		if rec.ID == "" {
			rec.ID = id
		}
		if rec.File == "" {
			rec.File = site.FileRef(rec.ID)
		}
		s.sites[rec.ID] = rec
	}
	logger.Debug().Int("sites", len(s.sites)).Str("path", s.path).Msg("metadata loaded")
}

// save writes the collection to a temp file in the same directory and renames
// it over the target so readers never observe a partial file. Callers hold mu.
func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.sites, "", "  ")
	if err != nil {
		return errors.Errorf("encoding metadata: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".sites-*.json")
	if err != nil {
		return errors.Errorf("creating temp metadata file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Errorf("writing temp metadata file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Errorf("syncing temp metadata file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Errorf("closing temp metadata file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Errorf("replacing metadata file: %w", err)
	}
	return nil
}

func (s *JSONStore) persist(ctx context.Context) error {
	err := s.save()
	if err == nil {
		s.dirty = false
		return nil
	}
	zerolog.Ctx(ctx).Error().Err(err).Str("path", s.path).Msg("saving metadata")
	if s.strict {
		return site.Wrap(site.ErrStorage, err)
	}
	s.dirty = true
	return nil
}

func (s *JSONStore) Get(ctx context.Context, id string) (site.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sites[id]
	if !ok {
		return site.Site{}, errors.WithStack(site.ErrNotFound)
	}
	return rec, nil
}

func (s *JSONStore) Put(ctx context.Context, rec site.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.sites[rec.ID]
	s.sites[rec.ID] = rec
	if err := s.persist(ctx); err != nil {
		if existed {
			s.sites[rec.ID] = prev
		} else {
			delete(s.sites, rec.ID)
		}
		return err
	}
	return nil
}

func (s *JSONStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.sites[id]
	if !ok {
		return nil
	}
	delete(s.sites, id)
	if err := s.persist(ctx); err != nil {
		s.sites[id] = prev
		return err
	}
	return nil
}

func (s *JSONStore) ListByOwner(ctx context.Context, owner site.UserID) ([]site.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []site.Site
	for _, rec := range s.sites {
		if rec.Owner == owner {
			out = append(out, rec)
		}
	}
	sortByUpdated(out)
	return out, nil
}

func (s *JSONStore) List(ctx context.Context) ([]site.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]site.Site, 0, len(s.sites))
	for _, rec := range s.sites {
		out = append(out, rec)
	}
	sortByUpdated(out)
	return out, nil
}

// Close retries the save when an earlier one failed. A store that only read
// leaves the file untouched.
func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	if err := s.save(); err != nil {
		return err
	}
	s.dirty = false
	return nil
}
