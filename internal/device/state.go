package device

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ImportState remembers when a device's media was last imported, so a device
// that has not been re-plugged since is skipped.
type ImportState struct {
	Device     string    `yaml:"device"`
	ImportedAt time.Time `yaml:"imported_at"`
}

func stateFile(metaDir, name string) string {
	return filepath.Join(metaDir, "imported", name+".yaml")
}

// IsImported reports whether the device's current media detection time is
// covered by a previous import.
func (d *Device) IsImported(metaDir string) bool {
	data, err := os.ReadFile(stateFile(metaDir, d.Name))
	if err != nil {
		return false
	}
	var state ImportState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return false
	}
	return !state.ImportedAt.Before(d.Detected)
}

// MarkImported records the device's detection time as imported.
func (d *Device) MarkImported(metaDir string) error {
	path := stateFile(metaDir, d.Name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	data, err := yaml.Marshal(ImportState{Device: d.Name, ImportedAt: d.Detected})
	if err != nil {
		return fmt.Errorf("marshaling import state for %s: %w", d.Name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing import state %s: %w", path, err)
	}
	return nil
}
