package hdf5

import (
	"fmt"
	"strings"
)

// ParseAttrPath splits an attribute path of the form /object@name. The
// object part defaults to the root group:
//
//	"/@title"       -> "/", "title"
//	"data/x@units"  -> "/data/x", "units"
func ParseAttrPath(p string) (objectPath, attrName string, err error) {
	at := strings.LastIndex(p, "@")
	if at < 0 {
		return "", "", fmt.Errorf("%w: %q has no '@' separator", ErrInvalidPath, p)
	}
	attrName = p[at+1:]
	if attrName == "" {
		return "", "", fmt.Errorf("%w: %q has an empty attribute name", ErrInvalidPath, p)
	}
	return CleanPath(p[:at]), attrName, nil
}

// SplitPath returns the non-empty components of p.
func SplitPath(p string) []string {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

// CleanPath returns p as an absolute path without repeated or trailing
// slashes. The empty path is the root.
func CleanPath(p string) string {
	return "/" + strings.Join(SplitPath(p), "/")
}
