package store

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Open picks a Preferences implementation by backend name.
func Open(ctx context.Context, backend, path, dbURL string) (Preferences, error) {
	switch backend {
	case BackendFile, "":
		return NewFile(path)
	case BackendPostgres:
		if dbURL == "" {
			return nil, fmt.Errorf("postgres preferences backend needs a database URL")
		}
		return NewPG(ctx, dbURL)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown preferences backend %q (want file, postgres or memory)", backend)
	}
}
