package util

import (
	"fmt"
	"strings"

	"jobassist-backend/internal/shared/apperr"
)

// SanitizeFileName keeps only the last path element of a client-supplied
// name and strips control characters. Names that reduce to nothing or to a
// directory reference are rejected with apperr.ErrInvalidInput.
func SanitizeFileName(name string) (string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r == '"' {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == ".." {
		return "", fmt.Errorf("%w: invalid file name", apperr.ErrInvalidInput)
	}
	return s, nil
}
