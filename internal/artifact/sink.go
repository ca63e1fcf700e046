// Package artifact delivers user-facing files (exported documents, archives, saved
// projects): the "download" half of export and save.
package artifact

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

type File struct {
	Name        string `json:"name"`
	Path        string `json:"path,omitempty"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

// Sink receives a finished artifact. Implementations must not expose partially
// written content.
type Sink interface {
	Put(ctx context.Context, name, contentType string, data []byte) (File, error)
}

// Checker is implemented by sinks that can refuse a name before anything is
// written. Callers writing several files check every name first.
type Checker interface {
	Check(name string) error
}

// ExistsError reports a target that is already present and may not be replaced.
type ExistsError struct {
	Path string
}

func (e *ExistsError) Error() string { return "file exists (use --overwrite): " + e.Path }

// DirSink writes artifacts into a directory.
type DirSink struct {
	Dir       string
	Overwrite bool
}

func (s DirSink) target(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) {
		return "", errors.New("invalid artifact name: " + name)
	}
	dir := strings.TrimSpace(s.Dir)
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(filepath.Clean(dir), name)
	if !s.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", &ExistsError{Path: path}
		}
	}
	return path, nil
}

// Check reports the error Put would return for name, without writing.
func (s DirSink) Check(name string) error {
	_, err := s.target(name)
	return err
}

func (s DirSink) Put(ctx context.Context, name, contentType string, data []byte) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}
	path, err := s.target(name)
	if err != nil {
		return File{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return File{}, err
	}
	if err := WriteFileAtomic(path, data, 0o644); err != nil {
		return File{}, err
	}
	return File{Name: filepath.Base(path), Path: path, ContentType: contentType, Size: len(data)}, nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it into place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// MemorySink keeps artifacts in memory.
type MemorySink struct {
	Files map[string][]byte
	Order []string
}

func (s *MemorySink) Put(ctx context.Context, name, contentType string, data []byte) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}
	if s.Files == nil {
		s.Files = map[string][]byte{}
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	if _, ok := s.Files[name]; !ok {
		s.Order = append(s.Order, name)
	}
	s.Files[name] = cp
	return File{Name: name, ContentType: contentType, Size: len(data)}, nil
}
