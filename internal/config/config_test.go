package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
storage:
  raw: /srv/recordings/raw
  processed: /srv/recordings/processed
devices:
  recA:
    glob: "*.WAV"
    prefer_channel: left
    drive:
      vendor: Sony
  recB:
    glob: "*.flac"
    prefer_channel: right
    drive:
      model: Recorder
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autosync-voice.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Storage.Raw != "/srv/recordings/raw" {
		t.Errorf("storage.raw = %s", cfg.Storage.Raw)
	}
	if len(cfg.Devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(cfg.Devices))
	}
	if cfg.Devices["recA"].PreferChannel != "left" {
		t.Errorf("recA prefer_channel = %s", cfg.Devices["recA"].PreferChannel)
	}

	// Defaults.
	if cfg.Sync.ToleranceMinutes != 1 {
		t.Errorf("default tolerance = %d, want 1", cfg.Sync.ToleranceMinutes)
	}
	if cfg.Sync.WindowSeconds != 30 {
		t.Errorf("default window = %d, want 30", cfg.Sync.WindowSeconds)
	}
	if cfg.Watch.IntervalSeconds != 60 {
		t.Errorf("default watch interval = %d, want 60", cfg.Watch.IntervalSeconds)
	}
	if cfg.Storage.Meta != "/srv/recordings/meta" {
		t.Errorf("default meta dir = %s", cfg.Storage.Meta)
	}
	if cfg.Storage.ExportedList != "/srv/recordings/meta/exported.list" {
		t.Errorf("default exported list = %s", cfg.Storage.ExportedList)
	}
	if cfg.Storage.EnhancedList != "/srv/recordings/meta/enhanced.list" {
		t.Errorf("default enhanced list = %s", cfg.Storage.EnhancedList)
	}
}

func TestLoadInvalidConfigs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing raw storage",
			yaml: `
storage:
  processed: /srv/p
devices:
  recA: {glob: "*.WAV", drive: {vendor: Sony}}
`,
		},
		{
			name: "no devices",
			yaml: `
storage:
  raw: /srv/raw
  processed: /srv/p
devices: {}
`,
		},
		{
			name: "glob without wildcard",
			yaml: `
storage:
  raw: /srv/raw
  processed: /srv/p
devices:
  recA: {glob: "recording.wav", drive: {vendor: Sony}}
`,
		},
		{
			name: "bad channel preference",
			yaml: `
storage:
  raw: /srv/raw
  processed: /srv/p
devices:
  recA: {glob: "*.wav", prefer_channel: center, drive: {vendor: Sony}}
`,
		},
		{
			name: "missing drive criteria",
			yaml: `
storage:
  raw: /srv/raw
  processed: /srv/p
devices:
  recA: {glob: "*.wav"}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.yaml)); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
