package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/signalsfoundry/iss-tracker/internal/trajectory"
)

// HTMLMap rewrites a self-contained map page at Path on every render.
type HTMLMap struct {
	Path  string
	Title string
}

// NewHTMLMap returns a renderer writing to path.
func NewHTMLMap(path string) *HTMLMap {
	return &HTMLMap{Path: path, Title: "ISS trajectory"}
}

func (h *HTMLMap) Render(_ context.Context, snap trajectory.Snapshot) error {
	var buf bytes.Buffer
	if err := writePage(&buf, pageData{Title: h.Title, Markers: snap.Markers()}); err != nil {
		return fmt.Errorf("render html map: %w", err)
	}

	// Write beside the target and rename so a browser never reads a partial page.
	dir := filepath.Dir(h.Path)
	tmp, err := os.CreateTemp(dir, ".iss-map-*.html")
	if err != nil {
		return fmt.Errorf("render html map: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("render html map: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("render html map: %w", err)
	}
	if err := os.Rename(tmp.Name(), h.Path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("render html map: %w", err)
	}
	return nil
}
