// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	"github.com/joho/godotenv"
)

var (
	withDefaultPattern = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*):-(.*?)\}`)
	bracedPattern      = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
)

// ExpandEnv replaces ${VAR} and ${VAR:-default} references in s.
// Unset variables without a default expand to the empty string.
func ExpandEnv(s string) string {
	s = withDefaultPattern.ReplaceAllStringFunc(s, func(match string) string {
		m := withDefaultPattern.FindStringSubmatch(match)
		if v, ok := os.LookupEnv(m[1]); ok && v != "" {
			return v
		}
		return m[2]
	})
	return bracedPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(bracedPattern.FindStringSubmatch(match)[1])
	})
}

// LoadEnvFiles loads variables from .env files into the process environment.
// Variables already set win; missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env.local", ".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}
