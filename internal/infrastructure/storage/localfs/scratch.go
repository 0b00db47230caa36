package localfs

import (
	"fmt"
	"os"
	"path/filepath"
)

// Scratch hands out short-lived working directories for external tools that
// only read and write files. Uploads are never kept past a single call.
type Scratch struct {
	basePath string
}

func New(basePath string) (*Scratch, error) {
	if basePath == "" {
		basePath = os.TempDir()
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Scratch{basePath: basePath}, nil
}

func (s *Scratch) Workspace(prefix string) (*Workspace, error) {
	dir, err := os.MkdirTemp(s.basePath, prefix+"-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

type Workspace struct {
	dir string
}

func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, filepath.Base(name))
}

func (w *Workspace) Save(name string, data []byte) (string, error) {
	path := w.Path(name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

func (w *Workspace) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(w.Path(name))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Remove deletes one file from the workspace; a missing file is not an error.
func (w *Workspace) Remove(name string) error {
	if err := os.Remove(w.Path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

func (w *Workspace) Close() error {
	return os.RemoveAll(w.dir)
}
