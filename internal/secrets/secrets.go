// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads the browser session credentials from a directory of
// plain-text files so they need not appear in shell history. Each file is
// one secret: the filename is the key and the trimmed contents the value.
//
// Recognized keys: cookie, csrf-token.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	// CookieKey holds the raw Cookie header copied from the browser.
	CookieKey = "cookie"
	// CSRFKey holds the X-CSRF-Token header copied from the browser.
	CSRFKey = "csrf-token"
)

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(log *slog.Logger, dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", slog.String("key", name), slog.String("err", err.Error()))
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Resolve returns explicit when it is set, or the secret stored under key.
func Resolve(explicit string, secrets map[string]string, key string) string {
	if explicit != "" {
		return explicit
	}
	return secrets[key]
}
