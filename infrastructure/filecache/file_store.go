package filecache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"syllabus-crawler/domain/model"
	"syllabus-crawler/domain/repository"
)

// FileStore keeps one JSON file per cache key under dir
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (repository.IResponseStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(kind model.ResourceKind, id string) string {
	return filepath.Join(s.dir, model.CacheKey(kind, filepath.Base(id)))
}

func (s *FileStore) Load(_ context.Context, kind model.ResourceKind, id string) (*model.CachedResponse, error) {
	raw, err := os.ReadFile(s.path(kind, id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var resp model.CachedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Save writes to a temp file and renames it so readers never see a partial record
func (s *FileStore) Save(_ context.Context, resp *model.CachedResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(resp.Kind, resp.ID))
}

func (s *FileStore) Delete(_ context.Context, kind model.ResourceKind, id string) error {
	err := os.Remove(s.path(kind, id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
