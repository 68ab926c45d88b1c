// Package matchmake finds recordings from different devices that look like
// they captured the same session.
package matchmake

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Recording is one device's capture of a session, located in raw storage.
type Recording struct {
	Path         string
	Device       string
	StartMinutes int
}

// Pair is a proposed merge of two recordings from two devices. Left/Right
// follow the device ordering, which puts channel preference first.
type Pair struct {
	Left  Recording
	Right Recording
}

// DeviceInfo is the metadata the matchmaker needs about one device.
type DeviceInfo struct {
	Name          string
	PreferChannel string
}

// Order decides which of two devices comes first when forming pairs, and
// therefore which recording lands on which output channel.
type Order func(a, b DeviceInfo) bool

// ByChannelPreference orders devices by their channel preference tag, falling
// back to the device name so the ordering is total and deterministic.
func ByChannelPreference(a, b DeviceInfo) bool {
	if a.PreferChannel != b.PreferChannel {
		return a.PreferChannel < b.PreferChannel
	}
	return a.Name < b.Name
}

var startTimeRe = regexp.MustCompile(`^(\d{2})(\d{2})`)

// ApproxTimeInMinutes deduces a start-of-day offset in minutes from the
// leading 4 digits of a filename, interpreted as HHMM. Filenames without such
// a prefix are simply unmatchable, not an error.
func ApproxTimeInMinutes(name string) (int, bool) {
	m := startTimeRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return hh*60 + mm, true
}

// Matchmaker proposes merge candidates for one session day at a time.
type Matchmaker struct {
	devices   []DeviceInfo
	tolerance int
}

// New builds a matchmaker over the given devices, sorted with the injected
// order. Tolerance is the maximum start-offset difference in minutes.
func New(devices []DeviceInfo, toleranceMinutes int, order Order) *Matchmaker {
	if order == nil {
		order = ByChannelPreference
	}
	sorted := make([]DeviceInfo, len(devices))
	copy(sorted, devices)
	sort.Slice(sorted, func(i, j int) bool { return order(sorted[i], sorted[j]) })
	return &Matchmaker{devices: sorted, tolerance: toleranceMinutes}
}

// Match enumerates all device pairs for one day directory and returns a
// mapping from derived output path to the recording pair that produces it.
// Two distinct pairs deriving the same output path is a collision and is
// reported as an error rather than silently overwritten.
func (m *Matchmaker) Match(dayDir, outDir string) (map[string]Pair, error) {
	slog.Debug("matchmaking", "day", dayDir, "devices", len(m.devices))

	matches := make(map[string]Pair)
	for i := 0; i < len(m.devices); i++ {
		for j := i + 1; j < len(m.devices); j++ {
			left, err := dayRecordings(dayDir, m.devices[i].Name)
			if err != nil {
				return nil, err
			}
			right, err := dayRecordings(dayDir, m.devices[j].Name)
			if err != nil {
				return nil, err
			}
			for _, l := range left {
				for _, r := range right {
					diff := l.StartMinutes - r.StartMinutes
					if diff < 0 {
						diff = -diff
					}
					if diff > m.tolerance {
						continue
					}
					out := outPath(outDir, dayDir, l.Path, r.Path)
					if prev, clash := matches[out]; clash && prev != (Pair{Left: l, Right: r}) {
						return nil, fmt.Errorf("output path collision at %s: %s+%s vs %s+%s",
							out, prev.Left.Path, prev.Right.Path, l.Path, r.Path)
					}
					matches[out] = Pair{Left: l, Right: r}
				}
			}
		}
	}
	return matches, nil
}

// dayRecordings lists a device's recordings for the day that carry a
// parseable start time.
func dayRecordings(dayDir, device string) ([]Recording, error) {
	files, err := filepath.Glob(filepath.Join(dayDir, device, "*.flac"))
	if err != nil {
		return nil, fmt.Errorf("listing recordings for %s: %w", device, err)
	}
	recordings := make([]Recording, 0, len(files))
	for _, f := range files {
		minutes, ok := ApproxTimeInMinutes(filepath.Base(f))
		if !ok {
			slog.Debug("skipping recording without parseable start time", "file", f)
			continue
		}
		recordings = append(recordings, Recording{Path: f, Device: device, StartMinutes: minutes})
	}
	return recordings, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// outPath derives the merged output path deterministically from the two input
// paths: a shared stem is reused, different stems are joined with a hyphen,
// and the file lives under a directory combining both device names inside the
// same session day.
func outPath(outDir, dayDir, path1, path2 string) string {
	name := stem(path1)
	if stem(path1) != stem(path2) {
		name = stem(path1) + "-" + stem(path2)
	}
	combiDir := filepath.Base(filepath.Dir(path1)) + "-" + filepath.Base(filepath.Dir(path2))
	return filepath.Join(outDir, filepath.Base(dayDir), combiDir, name+".flac")
}
