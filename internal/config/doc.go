// Package config defines the application's configuration structures and the
// logic to load them from environment variables and optional config files.
package config
