// Copyright 2026 Aiku AI

package notify

import (
	"path"
	"strings"
)

// Environ converts an os.Environ-style slice into a name/value map. The
// snapshot is taken once at startup and passed around explicitly so the
// filter stays a pure function.
func Environ(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		env[name] = value
	}
	return env
}

// FilterEnvironment returns the subset of env whose names match at least
// one of the shell-glob whitelist patterns. Matching is case-sensitive.
// An empty pattern list exposes nothing. Patterns are syntax-checked
// during configuration finalization; a malformed pattern reaching this
// point matches nothing.
func FilterEnvironment(env map[string]string, patterns []string) map[string]string {
	filtered := make(map[string]string)
	for name, value := range env {
		for _, pattern := range patterns {
			if ok, err := path.Match(pattern, name); err == nil && ok {
				filtered[name] = value
				break
			}
		}
	}
	return filtered
}
