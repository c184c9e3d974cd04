// Package config loads, normalizes, and validates platepipe configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and centralizes every knob the CLI and
// pipeline need: workspace directories, channel and cycle declarations,
// quality-gate flags, and external tool settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical values, and clear validation errors.
package config
