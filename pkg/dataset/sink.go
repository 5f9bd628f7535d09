package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Sink stores cleaned artifacts. Put returns a locator the caller can hand
// back to the user (a path, an object key, a URL).
type Sink interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// CleanedKey derives the artifact key for a repaired dataset:
// the source key with its extension replaced by "_cleaned.csv".
func CleanedKey(sourceKey string) string {
	ext := filepath.Ext(sourceKey)
	base := strings.TrimSuffix(sourceKey, ext)
	return base + "_cleaned.csv"
}

// MemorySink keeps artifacts in memory, for previews and tests.
type MemorySink struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{objects: make(map[string][]byte)}
}

func (s *MemorySink) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return key, nil
}

// Get returns a stored artifact.
func (s *MemorySink) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}

// FileSink writes artifacts under a base directory.
type FileSink struct {
	dir string
}

// NewFileSink creates a sink rooted at dir, creating it if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sink directory: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

func (s *FileSink) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(key))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}
