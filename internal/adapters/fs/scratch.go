// Package fs provides the file-system scratch store for session state.
package fs

import (
	"fmt"
	"os"
	"sync"

	"github.com/stress-labs/guestburn/internal/ports"
)

// scratchPrefix namespaces scratch files so stale ones are recognizable.
const scratchPrefix = "guestburn_"

// ScratchStore implements ports.ScratchStore with temp files under a
// single directory. Every created path is tracked and removed by
// RemoveAll.
type ScratchStore struct {
	dir string

	mu    sync.Mutex
	paths []string
}

// NewScratchStore creates a store rooted at dir. An empty dir uses the
// system temp directory.
func NewScratchStore(dir string) *ScratchStore {
	if dir == "" {
		dir = os.TempDir()
	}
	return &ScratchStore{dir: dir}
}

// CreateFile creates an empty scratch file with the given name hint.
func (s *ScratchStore) CreateFile(name string) (string, error) {
	f, err := os.CreateTemp(s.dir, scratchPrefix+name+"_")
	if err != nil {
		return "", fmt.Errorf("create scratch file %s: %w", name, err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close scratch file %s: %w", name, err)
	}

	s.track(path)
	return path, nil
}

// CreatePayload creates the upload payload as a sparse file of the given
// size, like `truncate -s` would.
func (s *ScratchStore) CreatePayload(size int64) (string, error) {
	path, err := s.CreateFile("post")
	if err != nil {
		return "", err
	}
	if err := os.Truncate(path, size); err != nil {
		return "", fmt.Errorf("size payload: %w", err)
	}
	return path, nil
}

// RemoveAll deletes every tracked file. Missing files are not an error, so
// it is safe to call more than once.
func (s *ScratchStore) RemoveAll() error {
	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()

	var firstErr error
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *ScratchStore) track(path string) {
	s.mu.Lock()
	s.paths = append(s.paths, path)
	s.mu.Unlock()
}

var _ ports.ScratchStore = (*ScratchStore)(nil)
