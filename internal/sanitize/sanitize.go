// Package sanitize validates and transforms raw metric names into names
// acceptable to the Librato API.
//
// Sanitization runs in two stages: an optional user-supplied stage followed
// by a mandatory final pass enforcing the remote system's hard constraints.
// The final pass cannot be bypassed, so even a misconfigured custom
// sanitizer never produces a rejected name.
package sanitize

import "strings"

// MaxNameLength is the longest metric name the remote API accepts.
const MaxNameLength = 255

// Func transforms a raw metric name. Implementations must be total: any
// input string yields some output string, never an error.
type Func func(name string) string

// Identity is the default user stage, returning the name unchanged.
func Identity(name string) string {
	return name
}

func allowed(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '.' || r == ':' || r == '_' || r == '-':
		return true
	}
	return false
}

// LastPass enforces the remote naming constraints: characters outside
// [A-Za-z0-9.:_-] are dropped and the result is truncated to MaxNameLength.
func LastPass(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if allowed(r) {
			b.WriteRune(r)
		}
	}
	sanitized := b.String()
	if len(sanitized) > MaxNameLength {
		sanitized = sanitized[:MaxNameLength]
	}
	return sanitized
}

// Chain composes an optional custom stage with the mandatory final pass.
//
// A nil custom stage degrades to Identity. The returned Func always runs
// LastPass after the custom stage.
func Chain(custom Func) Func {
	if custom == nil {
		custom = Identity
	}
	return func(name string) string {
		return LastPass(custom(name))
	}
}
