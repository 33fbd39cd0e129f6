//go:build !whisper_cpp

package engine

import "fmt"

// NewRecognizer is the placeholder for builds without the whisper_cpp tag.
// It always fails; the real implementation links against whisper.cpp.
func NewRecognizer(modelPath string, threads int) (Recognizer, error) {
	return nil, fmt.Errorf("speech engine not available in this build: rebuild with -tags whisper_cpp")
}
