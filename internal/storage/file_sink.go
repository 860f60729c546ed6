package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"chromesnap/pkg/models"
)

const (
	screenshotsDir = "screenshots"
	dataDir        = "data"

	// stampLayout produces names like screenshot_20260830_142501.png.
	stampLayout = "20060102_150405"
)

// FileSink writes capture artifacts under an output root:
// <root>/screenshots/ for PNGs and <root>/data/ for page-data JSON.
type FileSink struct {
	root string
	now  func() time.Time
}

// NewFileSink creates the output directory tree.
func NewFileSink(root string) (*FileSink, error) {
	for _, dir := range []string{root, filepath.Join(root, screenshotsDir), filepath.Join(root, dataDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
		}
	}
	return &FileSink{root: root, now: time.Now}, nil
}

// SaveScreenshot writes PNG bytes. An empty filename gets a timestamped one.
func (s *FileSink) SaveScreenshot(png []byte, filename string) (string, error) {
	if filename == "" {
		filename = fmt.Sprintf("screenshot_%s.png", s.now().Format(stampLayout))
	}
	path := filepath.Join(s.root, screenshotsDir, filename)

	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("writing screenshot: %w", err)
	}
	log.Info("screenshot saved", "path", path, "bytes", len(png))
	return path, nil
}

// SavePageData serializes the record to indented UTF-8 JSON, preserving all
// fields. An empty filename gets a timestamped one.
func (s *FileSink) SavePageData(data models.PageData, filename string) (string, error) {
	if filename == "" {
		filename = fmt.Sprintf("page_data_%s.json", s.now().Format(stampLayout))
	}
	path := filepath.Join(s.root, dataDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating data file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	// Keep non-ASCII and HTML characters readable in the output file.
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return "", fmt.Errorf("encoding page data: %w", err)
	}

	log.Info("page data saved", "path", path, "links", len(data.Links), "images", len(data.Images))
	return path, nil
}

// SaveNavigationResults writes a sweep summary next to the per-page records.
func (s *FileSink) SaveNavigationResults(results []models.NavigationResult) (string, error) {
	filename := fmt.Sprintf("navigation_%s.json", s.now().Format(stampLayout))
	path := filepath.Join(s.root, dataDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating navigation summary: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(results); err != nil {
		return "", fmt.Errorf("encoding navigation summary: %w", err)
	}
	return path, nil
}
