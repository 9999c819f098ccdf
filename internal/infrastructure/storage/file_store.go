package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"CityPodcast/internal/domain"
	"CityPodcast/internal/ports"
)

// ErrNotFound is returned by Open for names outside the store or missing files.
var ErrNotFound = errors.New("audio file not found")

const reserveAttempts = 5

// FileStore keeps synthesized audio under a single directory.
type FileStore struct {
	dir string
}

var _ ports.AudioStore = (*FileStore)(nil)

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "generated_audio"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Reserve exclusively creates {base}.{ext}. When the name is taken it falls back to
// {base}_{8 hex}.{ext} so concurrent runs never share a file.
func (s *FileStore) Reserve(base, ext string) (domain.AudioArtifact, error) {
	name := base + "." + ext
	if !validName(name) {
		return domain.AudioArtifact{}, fmt.Errorf("reserve %q: name must stay inside the audio dir", name)
	}
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		path := filepath.Join(s.dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			if closeErr := f.Close(); closeErr != nil {
				return domain.AudioArtifact{}, fmt.Errorf("close reserved file: %w", closeErr)
			}
			return domain.AudioArtifact{Filename: name, Path: path}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return domain.AudioArtifact{}, fmt.Errorf("reserve %s: %w", name, err)
		}
		name = fmt.Sprintf("%s_%s.%s", base, uuid.NewString()[:8], ext)
	}
	return domain.AudioArtifact{}, fmt.Errorf("reserve %s.%s: no free name after %d attempts", base, ext, reserveAttempts)
}

// Discard removes an artifact; a missing file is not an error.
func (s *FileStore) Discard(artifact domain.AudioArtifact) error {
	if artifact.Path == "" {
		return nil
	}
	if err := os.Remove(artifact.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("discard %s: %w", artifact.Filename, err)
	}
	return nil
}

// Open resolves filename to a path inside the store.
func (s *FileStore) Open(filename string) (string, error) {
	if !validName(filename) {
		return "", ErrNotFound
	}
	path := filepath.Join(s.dir, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

func validName(filename string) bool {
	if filename == "" || filename == "." || filename == ".." {
		return false
	}
	if strings.ContainsAny(filename, `/\`) || strings.Contains(filename, "..") {
		return false
	}
	return filepath.Base(filename) == filename
}
