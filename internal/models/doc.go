// Package models manages Whisper model artifacts on disk.
// It knows the published ggml model catalog, resolves per-model storage
// paths, and downloads artifacts from Hugging Face with streaming progress
// reporting and atomic temp-then-rename placement.
package models
