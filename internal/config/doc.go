// Package config loads, normalizes, and validates fieldsync configuration.
//
// Configuration comes from a TOML file (default
// ~/.config/fieldsync/config.toml, or fieldsync.toml in the working
// directory). Defaults apply for every omitted field; Load returns a
// fully normalized config with absolute paths.
package config
