package device

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/t184256/autosync-voice/internal/config"
)

const lsblkJSON = `{
  "blockdevices": [
    {
      "name": "sda", "path": "/dev/sda", "type": "disk",
      "vendor": "ATA     ", "model": "Samsung SSD", "serial": "S123",
      "children": [
        {"name": "sda1", "path": "/dev/sda1", "type": "part", "fstype": "ext4", "mountpoint": "/"}
      ]
    },
    {
      "name": "sdb", "path": "/dev/sdb", "type": "disk",
      "vendor": "Sony    ", "model": "ICD-TX660", "serial": "REC0001",
      "children": [
        {"name": "sdb1", "path": "/dev/sdb1", "type": "part", "fstype": "vfat", "mountpoint": null}
      ]
    }
  ]
}`

func TestMatchDevices(t *testing.T) {
	devices := map[string]config.DeviceConfig{
		"recA": {
			Glob:  "*.WAV",
			Drive: map[string]string{"vendor": "Sony", "model": "ICD-TX660"},
		},
	}

	found, err := matchDevices([]byte(lsblkJSON), devices)
	if err != nil {
		t.Fatalf("matchDevices failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 device, got %d", len(found))
	}
	if found[0].Name != "recA" || found[0].Node != "/dev/sdb1" {
		t.Errorf("found = %+v, want recA at /dev/sdb1", found[0])
	}
}

func TestMatchDevicesNoMatch(t *testing.T) {
	devices := map[string]config.DeviceConfig{
		"recA": {
			Glob:  "*.WAV",
			Drive: map[string]string{"vendor": "Sony", "serial": "OTHER"},
		},
	}

	found, err := matchDevices([]byte(lsblkJSON), devices)
	if err != nil {
		t.Fatalf("matchDevices failed: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("expected no devices, got %+v", found)
	}
}

func TestMatchDevicesBadJSON(t *testing.T) {
	if _, err := matchDevices([]byte("not json"), nil); err == nil {
		t.Error("expected an error for invalid lsblk output")
	}
}

func TestParseMountOutput(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"Mounted /dev/sdb1 at /run/media/user/RECORDER\n", "/run/media/user/RECORDER"},
		{"Mounted /dev/sdb1 at /run/media/user/RECORDER.\n", "/run/media/user/RECORDER"},
	}
	for _, tt := range tests {
		got, err := ParseMountOutput(tt.output)
		if err != nil {
			t.Errorf("ParseMountOutput(%q) failed: %v", tt.output, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMountOutput(%q) = %q, want %q", tt.output, got, tt.want)
		}
	}
}

func TestParseMountOutputUnexpected(t *testing.T) {
	if _, err := ParseMountOutput("something else entirely"); err == nil {
		t.Error("expected an error for unexpected udisksctl output")
	}
}

func TestVerifyMarker(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autosync-voice.toml")
	if err := os.WriteFile(path, []byte(`device_name = "recA"`), 0o644); err != nil {
		t.Fatalf("writing marker: %v", err)
	}

	if err := VerifyMarker(path, "recA"); err != nil {
		t.Errorf("VerifyMarker failed for matching marker: %v", err)
	}
	if err := VerifyMarker(path, "recB"); err == nil {
		t.Error("expected an error for a marker naming another device")
	}
	if err := VerifyMarker(filepath.Join(dir, "missing.toml"), "recA"); err == nil {
		t.Error("expected an error for a missing marker")
	}
}

func TestImportState(t *testing.T) {
	metaDir := t.TempDir()
	detected := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	d := &Device{Name: "recA", Node: "/dev/sdb1", Detected: detected}

	if d.IsImported(metaDir) {
		t.Error("expected IsImported false before marking")
	}
	if err := d.MarkImported(metaDir); err != nil {
		t.Fatalf("MarkImported failed: %v", err)
	}
	if !d.IsImported(metaDir) {
		t.Error("expected IsImported true after marking")
	}

	// Re-plugging later means a fresh import is due.
	replugged := &Device{Name: "recA", Node: "/dev/sdb1", Detected: detected.Add(time.Hour)}
	if replugged.IsImported(metaDir) {
		t.Error("expected IsImported false after the device was re-plugged")
	}
}
