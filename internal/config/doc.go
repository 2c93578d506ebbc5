// Package config loads and validates the mediascribe TOML configuration,
// with tilde expansion and repository defaults for every key.
package config
