package config

import "context"

// Loader is the interface for a format-specific project file loader.
type Loader interface {
	// Load reads the project files at paths (files or directories) and
	// returns every bundle they declare. Attributes a bundle leaves unset
	// are taken from defaults.
	Load(ctx context.Context, defaults Bundle, paths ...string) (*Model, error)
}
