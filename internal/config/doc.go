// Package config loads, normalizes, and validates radiograb configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// RADIOGRAB_NTFY_TOPIC. The Config type centralizes every knob the CLI needs,
// including the raw subscription rule tables, which are flattened to string
// maps here and compiled by the rules package.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
