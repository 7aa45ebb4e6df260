package scrape

import (
	"fmt"
	"os"
	"path/filepath"
)

// DebugStore keeps the raw page bodies of postings that parsed incomplete, so
// a selector drift can be diagnosed offline.
type DebugStore struct {
	dir string
}

func NewDebugStore(dir string) (*DebugStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("debug store mkdir: %w", err)
	}
	return &DebugStore{dir: dir}, nil
}

func (d *DebugStore) Save(id, body string) (string, error) {
	path := filepath.Join(d.dir, fmt.Sprintf("debug_html_%s.html", id))
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
