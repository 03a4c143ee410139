package metadata

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"gitlab.com/tozd/go/errors"
	_ "modernc.org/sqlite"

	"github.com/eringen/sitebot/site"
)

// SQLiteStore wraps a SQLite database holding one row per site.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Errorf("creating metadata directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Errorf("opening metadata db: %w", err)
	}
	// WAL lets readers proceed while a write is in flight; busy_timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, errors.Errorf("configuring metadata db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS sites (
    id TEXT PRIMARY KEY,
    owner INTEGER NOT NULL,
    file TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sites_owner ON sites(owner);
`)
	if err != nil {
		return errors.Errorf("creating metadata schema: %w", err)
	}
	return nil
}

const selectSite = `SELECT id, owner, file, size_bytes, created_at, updated_at FROM sites`

type scanner interface {
	Scan(dest ...any) error
}

func scanSite(row scanner) (site.Site, error) {
	var (
		rec              site.Site
		owner            int64
		created, updated string
	)
	if err := row.Scan(&rec.ID, &owner, &rec.File, &rec.SizeBytes, &created, &updated); err != nil {
		return site.Site{}, err
	}
	rec.Owner = site.UserID(owner)
	var err error
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return site.Site{}, errors.Errorf("parsing created_at of %s: %w", rec.ID, err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return site.Site{}, errors.Errorf("parsing updated_at of %s: %w", rec.ID, err)
	}
	return rec, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (site.Site, error) {
	rec, err := scanSite(s.db.QueryRowContext(ctx, selectSite+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return site.Site{}, errors.WithStack(site.ErrNotFound)
		}
		return site.Site{}, site.Wrap(site.ErrStorage, err)
	}
	return rec, nil
}

// Put upserts a site row.
func (s *SQLiteStore) Put(ctx context.Context, rec site.Site) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sites (id, owner, file, size_bytes, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, int64(rec.Owner), rec.File, rec.SizeBytes,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano), rec.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return site.Wrap(site.ErrStorage, err)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sites WHERE id = ?`, id); err != nil {
		return site.Wrap(site.ErrStorage, err)
	}
	return nil
}

func (s *SQLiteStore) ListByOwner(ctx context.Context, owner site.UserID) ([]site.Site, error) {
	return s.query(ctx, selectSite+` WHERE owner = ?`, int64(owner))
}

func (s *SQLiteStore) List(ctx context.Context) ([]site.Site, error) {
	return s.query(ctx, selectSite)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]site.Site, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, site.Wrap(site.ErrStorage, err)
	}
	defer rows.Close()

	var out []site.Site
	for rows.Next() {
		rec, err := scanSite(rows)
		if err != nil {
			return nil, site.Wrap(site.ErrStorage, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, site.Wrap(site.ErrStorage, err)
	}
	sortByUpdated(out)
	return out, nil
}
