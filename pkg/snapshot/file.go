package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/matzehuels/hdlviz/pkg/graph"
)

// File names written by FileStore.
const (
	PageFile  = "index.html"
	GraphFile = "graph.json"
	metaFile  = ".snapshot.json"
)

// FileStore writes the latest snapshot into an output directory as a page
// that can also be opened or served without hdlviz.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates dir if needed and returns a store writing into it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the output directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) Put(ctx context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(filepath.Join(s.dir, PageFile), snap.HTML, 0o644); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	if snap.Graph != nil {
		if err := graph.WriteFile(snap.Graph, filepath.Join(s.dir, GraphFile)); err != nil {
			return err
		}
	}

	meta, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, metaFile), meta, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Latest reads the stored page back. An empty page counts as no snapshot.
func (s *FileStore) Latest(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	html, err := os.ReadFile(filepath.Join(s.dir, PageFile))
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(html) == 0) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}

	snap := &Snapshot{}
	if data, err := os.ReadFile(filepath.Join(s.dir, metaFile)); err == nil {
		if err := json.Unmarshal(data, snap); err != nil {
			return nil, fmt.Errorf("parse snapshot: %w", err)
		}
	}
	snap.HTML = html
	if snap.Graph == nil {
		if g, err := graph.ReadFile(filepath.Join(s.dir, GraphFile)); err == nil {
			snap.Graph = g
		}
	}
	return snap, nil
}

// Clear empties the page and forgets the snapshot metadata. The graph file
// is left in place.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(filepath.Join(s.dir, PageFile), nil, 0o644); err != nil {
		return fmt.Errorf("clear page: %w", err)
	}
	if err := os.Remove(filepath.Join(s.dir, metaFile)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
