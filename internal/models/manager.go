package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// ProgressFunc reports download progress: a fraction in [0,1] plus the raw
// downloaded and total byte counts
type ProgressFunc func(fraction float64, downloaded, total int64)

// Store manages model artifacts under a single directory
type Store struct {
	dir    string
	client *http.Client
}

// DefaultDir returns the standard per-user model directory
func DefaultDir() string {
	return filepath.Join(xdg.DataHome, "audioink", "models")
}

// NewStore creates a model store. An empty dir uses DefaultDir.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Store{
		dir: dir,
		// Downloads run for minutes on slow links; lifetime is bounded by
		// the request context, not a client timeout
		client: &http.Client{},
	}
}

// Dir returns the directory holding model artifacts
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the on-disk path for a model's artifact
func (s *Store) Path(m Model) string {
	return filepath.Join(s.dir, m.Filename())
}

// IsDownloaded reports whether a model's artifact is present on disk
func (s *Store) IsDownloaded(m Model) bool {
	_, err := os.Stat(s.Path(m))
	return err == nil
}

// Downloaded returns the models whose artifacts are present on disk
func (s *Store) Downloaded() []Model {
	var present []Model
	for _, m := range All() {
		if s.IsDownloaded(m) {
			present = append(present, m)
		}
	}
	return present
}

// Download fetches a model artifact, streaming it to a temporary file and
// renaming into place only once complete, so a partial download never looks
// like a usable model. An already-present artifact returns immediately.
// progress may be nil.
func (s *Store) Download(ctx context.Context, m Model, progress ProgressFunc) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create models directory: %w", err)
	}

	modelPath := s.Path(m)
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.URL(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("model download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model download failed: HTTP %s", resp.Status)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = m.SizeBytes()
	}

	tempPath := strings.TrimSuffix(modelPath, filepath.Ext(modelPath)) + ".downloading"
	file, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to create download file: %w", err)
	}

	var downloaded int64
	buf := make([]byte, 64*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				file.Close()
				os.Remove(tempPath)
				return "", fmt.Errorf("failed to write model file: %w", writeErr)
			}
			downloaded += int64(n)
			if progress != nil {
				progress(float64(downloaded)/float64(total), downloaded, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			file.Close()
			os.Remove(tempPath)
			return "", fmt.Errorf("model download failed: %w", readErr)
		}
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to finalize model file: %w", err)
	}

	if err := os.Rename(tempPath, modelPath); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to move model into place: %w", err)
	}

	return modelPath, nil
}

// Delete removes a model's artifact. Deleting an absent model is not an error.
func (s *Store) Delete(m Model) error {
	if err := os.Remove(s.Path(m)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete model: %w", err)
	}
	return nil
}

// StorageInfo describes disk usage of downloaded models
type StorageInfo struct {
	Dir        string          `json:"dir"`
	TotalSize  int64           `json:"total_size"`
	ModelSizes map[Model]int64 `json:"model_sizes"`
}

// TotalSizeFormatted renders the total size as a human-readable string
func (i *StorageInfo) TotalSizeFormatted() string {
	return FormatBytes(i.TotalSize)
}

// StorageInfo reports which models are on disk and how much space they use
func (s *Store) StorageInfo() *StorageInfo {
	info := &StorageInfo{
		Dir:        s.dir,
		ModelSizes: make(map[Model]int64),
	}

	for _, m := range All() {
		stat, err := os.Stat(s.Path(m))
		if err != nil {
			continue
		}
		info.ModelSizes[m] = stat.Size()
		info.TotalSize += stat.Size()
	}

	return info
}
