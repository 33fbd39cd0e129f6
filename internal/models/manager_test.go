package models

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStorePaths(t *testing.T) {
	s := NewStore("/data/models")

	want := filepath.Join("/data/models", "ggml-base.bin")
	if got := s.Path(Base); got != want {
		t.Errorf("Expected path %s, got %s", want, got)
	}
}

func TestIsDownloaded(t *testing.T) {
	s := NewStore(t.TempDir())

	if s.IsDownloaded(Base) {
		t.Error("Expected base model to be absent in empty store")
	}

	if err := os.WriteFile(s.Path(Base), []byte("model data"), 0o644); err != nil {
		t.Fatalf("Failed to create model file: %v", err)
	}

	if !s.IsDownloaded(Base) {
		t.Error("Expected base model to be reported as downloaded")
	}

	downloaded := s.Downloaded()
	if len(downloaded) != 1 || downloaded[0] != Base {
		t.Errorf("Expected downloaded list [base], got %v", downloaded)
	}
}

func TestDownload(t *testing.T) {
	payload := strings.Repeat("m", 200*1024)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer server.Close()

	s := NewStore(t.TempDir())
	// Point the client at the test server regardless of requested URL
	s.client = &http.Client{Transport: rewriteTransport{target: server.URL}}

	var calls int
	var lastFraction float64
	path, err := s.Download(context.Background(), Tiny, func(fraction float64, downloaded, total int64) {
		calls++
		if fraction < lastFraction {
			t.Errorf("Progress went backwards: %f after %f", fraction, lastFraction)
		}
		lastFraction = fraction
	})
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	if path != s.Path(Tiny) {
		t.Errorf("Expected artifact at %s, got %s", s.Path(Tiny), path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read downloaded artifact: %v", err)
	}

	if len(data) != len(payload) {
		t.Errorf("Expected %d bytes, got %d", len(payload), len(data))
	}

	if calls == 0 {
		t.Error("Expected progress callbacks during download")
	}

	// The temp file must be gone after the rename
	temp := strings.TrimSuffix(path, ".bin") + ".downloading"
	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Error("Expected .downloading temp file to be renamed away")
	}
}

func TestDownloadAlreadyPresent(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := os.MkdirAll(s.Dir(), 0o755); err != nil {
		t.Fatalf("Failed to create store dir: %v", err)
	}

	if err := os.WriteFile(s.Path(Base), []byte("existing"), 0o644); err != nil {
		t.Fatalf("Failed to create model file: %v", err)
	}

	// No server is reachable; a present artifact must short-circuit
	path, err := s.Download(context.Background(), Base, nil)
	if err != nil {
		t.Fatalf("Download of present model failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "existing" {
		t.Error("Expected present artifact to be left untouched")
	}
}

func TestDownloadHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	s := NewStore(t.TempDir())
	s.client = &http.Client{Transport: rewriteTransport{target: server.URL}}

	_, err := s.Download(context.Background(), Tiny, nil)
	if err == nil {
		t.Fatal("Expected error for HTTP 404")
	}

	if !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected status in error, got: %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := NewStore(t.TempDir())

	// Deleting an absent model is fine
	if err := s.Delete(Base); err != nil {
		t.Errorf("Delete of absent model failed: %v", err)
	}

	if err := os.WriteFile(s.Path(Base), []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to create model file: %v", err)
	}

	if err := s.Delete(Base); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if s.IsDownloaded(Base) {
		t.Error("Expected model to be gone after delete")
	}
}

func TestStorageInfo(t *testing.T) {
	s := NewStore(t.TempDir())

	if err := os.WriteFile(s.Path(Tiny), make([]byte, 1000), 0o644); err != nil {
		t.Fatalf("Failed to create model file: %v", err)
	}
	if err := os.WriteFile(s.Path(Base), make([]byte, 2000), 0o644); err != nil {
		t.Fatalf("Failed to create model file: %v", err)
	}

	info := s.StorageInfo()

	if info.TotalSize != 3000 {
		t.Errorf("Expected total size 3000, got %d", info.TotalSize)
	}

	if info.ModelSizes[Tiny] != 1000 {
		t.Errorf("Expected tiny size 1000, got %d", info.ModelSizes[Tiny])
	}

	if len(info.ModelSizes) != 2 {
		t.Errorf("Expected 2 models in storage info, got %d", len(info.ModelSizes))
	}
}

// rewriteTransport redirects every request to a fixed test server
type rewriteTransport struct {
	target string
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	redirected, err := http.NewRequestWithContext(req.Context(), req.Method, rt.target, req.Body)
	if err != nil {
		return nil, err
	}
	return http.DefaultTransport.RoundTrip(redirected)
}
