// Package config loads, normalizes, and validates meetscribe configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks for the Hugging Face token
// (HUGGING_FACE_HUB_TOKEN, then HF_TOKEN). The Config value is loaded once by
// the CLI and passed explicitly to the pipeline; no package reads global
// configuration.
package config
