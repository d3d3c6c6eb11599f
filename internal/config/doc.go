// Package config loads and validates the reelpipe TOML configuration.
package config
