// Package history persists finished transcriptions as a capped JSON list
// plus one plain-text file per entry, newest first.
package history
