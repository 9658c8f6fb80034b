package parser

import (
	"strings"
)

const fenceMarker = "```"

// StripCodeFence returns the payload inside the first fenced block of raw.
// Text outside the fence is discarded and an info string after the opening
// marker (for example "yaml") is skipped. Input without any fence is
// returned trimmed. An opening fence without a closing one fails with
// ErrUnterminatedFence. Stripping an already stripped payload returns it
// unchanged.
func StripCodeFence(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	open := strings.Index(s, fenceMarker)
	if open < 0 {
		return s, nil
	}
	rest := s[open+len(fenceMarker):]

	body := rest
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && isInfoString(rest[:nl]) {
		body = rest[nl+1:]
	}

	closing := strings.Index(body, fenceMarker)
	if closing < 0 {
		return "", ErrUnterminatedFence
	}
	return strings.TrimSpace(body[:closing]), nil
}

// isInfoString reports whether the text after an opening fence is a
// language tag rather than payload.
func isInfoString(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	return !strings.ContainsAny(s, " \t:{}[]\"'")
}
