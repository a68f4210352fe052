// Package secrets resolves credentials for the providers and cache backends.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source lists the places a secret may come from. File wins over Env, Env
// wins over Value.
type Source struct {
	// Name appears in errors, e.g. "gemini api key".
	Name  string
	Value string
	File  string
	// Env is the name of an environment variable holding the secret itself.
	Env string
}

func (s Source) label() string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	return "secret"
}

func (s Source) configured() bool {
	return strings.TrimSpace(s.File) != "" ||
		strings.TrimSpace(s.Value) != "" ||
		(s.Env != "" && strings.TrimSpace(os.Getenv(s.Env)) != "")
}

// Load resolves the secret and trims surrounding whitespace.
func Load(src Source) (string, error) {
	name := src.label()

	if path := strings.TrimSpace(src.File); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s from %q: %w", name, path, err)
		}
		if v := strings.TrimSpace(string(raw)); v != "" {
			return v, nil
		}
		return "", fmt.Errorf("%s file %q is empty", name, path)
	}

	if src.Env != "" {
		if v := strings.TrimSpace(os.Getenv(src.Env)); v != "" {
			return v, nil
		}
	}

	if v := strings.TrimSpace(src.Value); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s is not configured", name)
}

// LoadOptional returns "" without error when no source is configured.
func LoadOptional(src Source) (string, error) {
	if !src.configured() {
		return "", nil
	}
	return Load(src)
}
