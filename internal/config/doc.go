// Package config loads, normalizes, and validates Satchel configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and generates a stable device id when one
// is not configured. The Config type centralizes every knob the sync engine
// and CLI need, including the saved server list.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
