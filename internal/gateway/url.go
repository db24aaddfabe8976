package gateway

import (
	"net/url"
	"strings"
)

// JoinURL joins base and path with a single separator and collapses any
// duplicate separators in the path part. The "//" after a scheme's "://"
// and anything after "?" or "#" are left alone.
func JoinURL(base, path string) string {
	joined := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")

	scheme := ""
	rest := joined
	if i := strings.Index(joined, "://"); i >= 0 {
		scheme = joined[:i+3]
		rest = joined[i+3:]
	}

	suffix := ""
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		suffix = rest[i:]
		rest = rest[:i]
	}

	for strings.Contains(rest, "//") {
		rest = strings.ReplaceAll(rest, "//", "/")
	}

	return scheme + rest + suffix
}

// ResourcePath appends escaped segments to route, e.g.
// ResourcePath("meals", "7", "aliments") is "meals/7/aliments".
func ResourcePath(route string, segments ...string) string {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, strings.TrimRight(route, "/"))
	for _, seg := range segments {
		parts = append(parts, url.PathEscape(strings.Trim(seg, "/")))
	}
	return strings.Join(parts, "/")
}
