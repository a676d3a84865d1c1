package pagegraph

import "strings"

// IsURL reports whether source names an http or https resource rather
// than a local file.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
