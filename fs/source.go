package fs

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/fwojciec/pagegraph"
)

// StdinSource is the source name that reads HTML from standard input.
const StdinSource = "-"

// Ensure FileSource implements pagegraph.Fetcher at compile time.
var _ pagegraph.Fetcher = (*FileSource)(nil)

// FileSource reads HTML from local files, or from stdin for StdinSource.
type FileSource struct {
	stdin io.Reader
}

// NewFileSource creates a FileSource that reads StdinSource from stdin.
func NewFileSource(stdin io.Reader) *FileSource {
	return &FileSource{stdin: stdin}
}

// Fetch reads the whole file at path. Missing files yield ENOTFOUND.
func (s *FileSource) Fetch(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if path == StdinSource {
		if s.stdin == nil {
			return "", pagegraph.Errorf(pagegraph.EINVALID, "stdin not available")
		}
		b, err := io.ReadAll(s.stdin)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", pagegraph.Errorf(pagegraph.ENOTFOUND, "file not found: %s", path)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Close is a no-op.
func (s *FileSource) Close() error {
	return nil
}
