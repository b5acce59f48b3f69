// Package envfile optionally merges a .env-style file into the environment
// binding used to render {{var}} placeholders, in addition to whatever
// --env bindings were given on the command line.
package envfile

import (
	"github.com/joho/godotenv"
)

// Load reads the .env-style file at path and merges its keys under base
// (base entries win on conflict, since --env is the more explicit source).
// A missing or unreadable file is an error — callers only invoke Load when
// --env-file was actually set.
func Load(path string, base map[string]string) (map[string]string, error) {
	fromFile, err := godotenv.Read(path)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]string, len(fromFile)+len(base))
	for k, v := range fromFile {
		merged[k] = v
	}
	for k, v := range base {
		merged[k] = v
	}
	return merged, nil
}
