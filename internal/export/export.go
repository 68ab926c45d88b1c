// Package export transcodes raw recordings into the processed tree.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/t184256/autosync-voice/internal/media"
)

// Exporter transcodes recordings to their export format.
type Exporter struct{}

// New returns an exporter.
func New() *Exporter {
	return &Exporter{}
}

// Export transcodes in to out, writing through a temporary path and renaming
// into place only on success.
func (e *Exporter) Export(ctx context.Context, out, in string) error {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(out), err)
	}
	ext := filepath.Ext(out)
	tmp := strings.TrimSuffix(out, ext) + ".tmp" + ext
	if err := media.Transcode(ctx, in, tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, out); err != nil {
		return fmt.Errorf("renaming %s into place: %w", tmp, err)
	}
	return nil
}
