// Package config defines the format-agnostic description of what to build:
// one or more bundles, each with an entry file, an output path and the
// options of the build stages. Concrete file formats are loaded by separate
// packages implementing Loader.
package config
