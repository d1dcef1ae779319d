package utils

import (
	"path/filepath"
	"strings"
)

func AssertInvariant(condition bool, message string) {
	if !condition {
		panic("invariant violated - " + message)
	}
}

// SanitizePath cleans p and strips any leading ".." segments so that joining the
// result onto a root can never climb above that root
func SanitizePath(p string) string {
	sanitized := filepath.ToSlash(filepath.Clean(p))
	for {
		if sanitized == ".." {
			return "."
		}
		if !strings.HasPrefix(sanitized, "../") {
			break
		}
		sanitized = strings.TrimPrefix(sanitized, "../")
	}
	if sanitized == "" {
		return "."
	}
	return filepath.FromSlash(sanitized)
}
