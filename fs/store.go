package fs

import (
	"context"
	"os"
	"path/filepath"
)

// ExportStore writes exported graphs with atomic update semantics.
// Files are saved to a temporary directory, then moved atomically on Commit.
type ExportStore struct {
	baseDir string
	name    string
}

// NewExportStore creates a new ExportStore.
// baseDir is the parent directory, name is the output directory name.
// Files are saved to baseDir/name.tmp and moved to baseDir/name on Commit.
func NewExportStore(baseDir, name string) *ExportStore {
	return &ExportStore{
		baseDir: baseDir,
		name:    name,
	}
}

func (s *ExportStore) tempDir() string {
	return filepath.Join(s.baseDir, s.name+".tmp")
}

func (s *ExportStore) finalDir() string {
	return filepath.Join(s.baseDir, s.name)
}

// Save writes content for source with the given extension and returns the
// path the file will have after Commit.
func (s *ExportStore) Save(ctx context.Context, source, ext, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	relPath, err := SourceToPath(source, ext)
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(s.tempDir(), relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		return "", err
	}

	return filepath.Join(s.finalDir(), relPath), nil
}

// Commit replaces the output directory with everything saved so far.
func (s *ExportStore) Commit() error {
	if _, err := os.Stat(s.tempDir()); os.IsNotExist(err) {
		return os.MkdirAll(s.finalDir(), 0755)
	}

	// Remove existing final directory if present
	if err := os.RemoveAll(s.finalDir()); err != nil {
		return err
	}

	return os.Rename(s.tempDir(), s.finalDir())
}

// Abort discards everything saved since the store was created.
func (s *ExportStore) Abort() error {
	return os.RemoveAll(s.tempDir())
}
