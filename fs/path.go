// Package fs provides file-based input and output for pagegraph: reading
// HTML from local files and writing exported graphs to disk.
package fs

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/fwojciec/pagegraph"
)

// SourceToPath converts an analyzed source to a relative output path with
// the given extension (without the dot).
//
//	https://example.com/docs/api/users → docs/api/users.<ext>
//	https://example.com/docs/          → docs/index.<ext>
//	./pages/home.html                  → home.<ext>
//	-                                  → stdin.<ext>
func SourceToPath(source, ext string) (string, error) {
	var p string
	switch {
	case source == StdinSource:
		p = "stdin"
	case pagegraph.IsURL(source):
		u, err := url.Parse(source)
		if err != nil {
			return "", pagegraph.Errorf(pagegraph.EINVALID, "invalid URL %q: %v", source, err)
		}
		p = strings.TrimPrefix(u.Path, "/")
		if p == "" || strings.HasSuffix(p, "/") {
			p += "index"
		}
		p = strings.TrimSuffix(p, path.Ext(p))
	default:
		base := filepath.Base(source)
		p = strings.TrimSuffix(base, filepath.Ext(base))
		if p == "" || p == "." {
			p = "index"
		}
	}

	cleaned := path.Clean(p)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", pagegraph.Errorf(pagegraph.EINVALID, "path traversal in %q", source)
	}
	return filepath.FromSlash(cleaned) + "." + ext, nil
}
