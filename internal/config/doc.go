// Package config loads, normalizes, and validates viflac configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// session and CLI need: tag tool binaries, the audio suffix, the editor
// override, parse strictness, rename policy, the journal, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors naming the offending key.
package config
