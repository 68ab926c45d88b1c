// Package device finds configured USB recorders among the attached block
// devices, mounts them for import and unmounts them afterwards.
package device

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/t184256/autosync-voice/internal/config"
)

// Device is a recorder's storage partition, matched against the config.
type Device struct {
	Name     string    // device name from the config
	Node     string    // filesystem partition node, e.g. /dev/sdb1
	Detected time.Time // when the media appeared, from the device node
}

type lsblkEntry struct {
	Name       string       `json:"name"`
	Path       string       `json:"path"`
	Type       string       `json:"type"`
	Vendor     string       `json:"vendor"`
	Model      string       `json:"model"`
	Serial     string       `json:"serial"`
	Label      string       `json:"label"`
	FSType     string       `json:"fstype"`
	Mountpoint string       `json:"mountpoint"`
	Children   []lsblkEntry `json:"children"`
}

type lsblkOutput struct {
	Blockdevices []lsblkEntry `json:"blockdevices"`
}

// Detect lists the attached block devices and returns one Device per
// configured recorder whose drive criteria match.
func Detect(ctx context.Context, devices map[string]config.DeviceConfig) ([]Device, error) {
	output, err := exec.CommandContext(ctx, "lsblk",
		"-J", "-o", "NAME,PATH,TYPE,VENDOR,MODEL,SERIAL,LABEL,FSTYPE,MOUNTPOINT").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run lsblk: %w", err)
	}
	found, err := matchDevices(output, devices)
	if err != nil {
		return nil, err
	}
	for i := range found {
		if info, err := os.Stat(found[i].Node); err == nil {
			found[i].Detected = info.ModTime()
		}
	}
	return found, nil
}

// matchDevices parses lsblk JSON and matches disks against the configured
// drive criteria. The matched device's node is its first mountable partition.
func matchDevices(lsblkJSON []byte, devices map[string]config.DeviceConfig) ([]Device, error) {
	var tree lsblkOutput
	if err := json.Unmarshal(lsblkJSON, &tree); err != nil {
		return nil, fmt.Errorf("parsing lsblk output: %w", err)
	}

	var found []Device
	for _, disk := range tree.Blockdevices {
		if disk.Type != "disk" {
			continue
		}
		for name, devConfig := range devices {
			if !driveMatches(disk, devConfig.Drive) {
				continue
			}
			node := partitionNode(disk)
			if node == "" {
				slog.Debug("matched drive has no mountable partition", "device", name, "disk", disk.Path)
				continue
			}
			slog.Debug("found device", "device", name, "node", node)
			found = append(found, Device{Name: name, Node: node})
			break
		}
	}
	return found, nil
}

func driveMatches(disk lsblkEntry, criteria map[string]string) bool {
	attrs := map[string]string{
		"vendor": strings.TrimSpace(disk.Vendor),
		"model":  strings.TrimSpace(disk.Model),
		"serial": strings.TrimSpace(disk.Serial),
		"label":  strings.TrimSpace(disk.Label),
	}
	for key, want := range criteria {
		got, ok := attrs[strings.ToLower(key)]
		if !ok || got != want {
			return false
		}
	}
	return true
}

func partitionNode(disk lsblkEntry) string {
	for _, child := range disk.Children {
		if child.Type == "part" && child.FSType != "" {
			return child.Path
		}
	}
	return ""
}

// Mount mounts the device's partition via udisksctl and returns the
// mountpoint. An already-mounted partition is reused.
func (d *Device) Mount(ctx context.Context) (string, error) {
	if mp := d.currentMountpoint(ctx); mp != "" {
		fmt.Printf("%s is already mounted at `%s`\n", d.Name, mp)
		return mp, nil
	}

	fmt.Printf("%s mounting...\n", d.Name)
	output, err := exec.CommandContext(ctx, "udisksctl", "mount", "-b", d.Node).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("mounting %s: %w: %s", d.Node, err, strings.TrimSpace(string(output)))
	}
	mountpoint, err := ParseMountOutput(string(output))
	if err != nil {
		return "", err
	}
	fmt.Printf("%s mounted at `%s`\n", d.Name, mountpoint)
	return mountpoint, nil
}

func (d *Device) currentMountpoint(ctx context.Context) string {
	output, err := exec.CommandContext(ctx, "lsblk", "-no", "MOUNTPOINT", d.Node).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

// ParseMountOutput extracts the mountpoint from udisksctl output like
// "Mounted /dev/sdb1 at /run/media/user/RECORDER." (older versions append a
// trailing period).
func ParseMountOutput(output string) (string, error) {
	line := strings.TrimSpace(output)
	_, after, found := strings.Cut(line, " at ")
	if !found {
		return "", fmt.Errorf("unexpected udisksctl output: %q", line)
	}
	return strings.TrimSuffix(strings.TrimSpace(after), "."), nil
}

// Unmount unmounts the device's partition.
func (d *Device) Unmount(ctx context.Context) error {
	fmt.Printf("%s unmounting...\n", d.Name)
	output, err := exec.CommandContext(ctx, "udisksctl", "unmount", "-b", d.Node).CombinedOutput()
	if err != nil {
		return fmt.Errorf("unmounting %s: %w: %s", d.Node, err, strings.TrimSpace(string(output)))
	}
	slog.Debug("unmounted", "node", d.Node)
	fmt.Printf("%s unmounted\n", d.Name)
	return nil
}

// deviceMarker is the on-device marker file that confirms which recorder a
// partition belongs to.
type deviceMarker struct {
	DeviceName string `toml:"device_name"`
}

// CheckMount mounts the device and verifies the on-device marker names this
// device, guarding against importing from a lookalike drive.
func (d *Device) CheckMount(ctx context.Context) (string, error) {
	mountpoint, err := d.Mount(ctx)
	if err != nil {
		return "", err
	}
	markerPath := filepath.Join(mountpoint, "autosync-voice.toml")
	if err := VerifyMarker(markerPath, d.Name); err != nil {
		return "", err
	}
	fmt.Printf("%s has a matching `%s`\n", d.Name, markerPath)
	return mountpoint, nil
}

// VerifyMarker checks that the marker file at path names the given device.
func VerifyMarker(path, deviceName string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading device marker %s: %w", path, err)
	}
	var marker deviceMarker
	if err := toml.Unmarshal(data, &marker); err != nil {
		return fmt.Errorf("parsing device marker %s: %w", path, err)
	}
	if marker.DeviceName != deviceName {
		return fmt.Errorf("device marker %s names '%s', expected '%s'",
			path, marker.DeviceName, deviceName)
	}
	return nil
}
