// Package app contains the core application logic. It defines the App
// struct, its configuration and the build lifecycle that turns one or more
// entry modules into bundles, decoupled from the CLI entrypoint.
package app
