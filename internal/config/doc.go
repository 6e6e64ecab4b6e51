// Package config loads, normalizes, and validates fewshot configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FEWSHOT_GLOVE_PATH. The Config type centralizes every knob the corpus
// pipeline and CLI need: where the raw corpora live, the vocabulary
// threshold, the embedding table, how author pools are persisted, and the
// default episode shapes.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, per-corpus defaults, and clear validation errors.
package config
