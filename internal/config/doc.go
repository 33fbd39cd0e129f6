// Package config provides YAML configuration loading and validation for the
// transcription pipeline. A zero-file default is always available, so the
// CLI runs without any configuration present.
package config
