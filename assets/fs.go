package assets

import (
	"context"
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

const tempDirName = ".tmp"

// FSStore keeps content as plain files in a single directory.
type FSStore struct {
	root string
}

// NewFSStore creates root (and its temp area) if needed.
func NewFSStore(root string) (*FSStore, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(filepath.Join(root, tempDirName), 0o755); err != nil {
		return nil, errors.Errorf("creating asset directory: %w", err)
	}
	return &FSStore{root: root}, nil
}

// Root returns the directory content is stored in.
func (s *FSStore) Root() string {
	return s.root
}

func (s *FSStore) path(ref string) string {
	return filepath.Join(s.root, ref)
}

// Put writes to a temp file first and renames it into place, so a reader
// sees either the previous content or the new content, never a mix.
func (s *FSStore) Put(ctx context.Context, ref string, content []byte) error {
	if err := checkRef(ref); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Join(s.root, tempDirName), "upload-*")
	if err != nil {
		return errors.Errorf("creating temp asset: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return errors.Errorf("writing temp asset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Errorf("closing temp asset: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Errorf("setting asset mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(ref)); err != nil {
		return errors.Errorf("committing asset %s: %w", ref, err)
	}
	return nil
}

func (s *FSStore) Get(ctx context.Context, ref string) ([]byte, error) {
	if err := checkRef(ref); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(ref))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, notFound(ref)
		}
		return nil, errors.Errorf("reading asset %s: %w", ref, err)
	}
	return data, nil
}

func (s *FSStore) Exists(ctx context.Context, ref string) (bool, error) {
	if err := checkRef(ref); err != nil {
		return false, err
	}
	_, err := os.Stat(s.path(ref))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.Errorf("stat asset %s: %w", ref, err)
	}
	return true, nil
}

func (s *FSStore) Remove(ctx context.Context, ref string) error {
	if err := checkRef(ref); err != nil {
		return err
	}
	if err := os.Remove(s.path(ref)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Errorf("removing asset %s: %w", ref, err)
	}
	return nil
}
