package matchmake

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("touch %s: %v", path, err)
	}
}

func TestApproxTimeInMinutes(t *testing.T) {
	tests := []struct {
		name    string
		minutes int
		ok      bool
	}{
		{"0900.flac", 9 * 60, true},
		{"0901.flac", 9*60 + 1, true},
		{"2359.flac", 23*60 + 59, true},
		{"0000.flac", 0, true},
		{"0203n1.flac", 2*60 + 3, true},
		{"unparsed.ogg", 0, false},
		{"09.flac", 0, false},
		{"x900.flac", 0, false},
	}
	for _, tt := range tests {
		minutes, ok := ApproxTimeInMinutes(tt.name)
		if ok != tt.ok || minutes != tt.minutes {
			t.Errorf("ApproxTimeInMinutes(%q) = (%d, %v), want (%d, %v)",
				tt.name, minutes, ok, tt.minutes, tt.ok)
		}
	}
}

func twoDeviceMatchmaker(tolerance int) *Matchmaker {
	return New([]DeviceInfo{
		{Name: "recB", PreferChannel: "right"},
		{Name: "recA", PreferChannel: "left"},
	}, tolerance, nil)
}

func TestMatchWithinTolerance(t *testing.T) {
	raw := t.TempDir()
	day := filepath.Join(raw, "2024-06-01")
	touch(t, filepath.Join(day, "recA", "0900.flac"))
	touch(t, filepath.Join(day, "recB", "0901.flac"))

	matches, err := twoDeviceMatchmaker(1).Match(day, raw)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	want := filepath.Join(raw, "2024-06-01", "recA-recB", "0900-0901.flac")
	pair, ok := matches[want]
	if !ok {
		t.Fatalf("expected output path %s, got %v", want, matches)
	}
	// recA is the left channel despite being listed second.
	if pair.Left.Device != "recA" || pair.Right.Device != "recB" {
		t.Errorf("pair ordering = (%s, %s), want (recA, recB)", pair.Left.Device, pair.Right.Device)
	}
}

func TestMatchOutsideTolerance(t *testing.T) {
	raw := t.TempDir()
	day := filepath.Join(raw, "2024-06-01")
	touch(t, filepath.Join(day, "recA", "0900.flac"))
	touch(t, filepath.Join(day, "recB", "0903.flac"))

	matches, err := twoDeviceMatchmaker(1).Match(day, raw)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %v", matches)
	}
}

func TestMatchSharedStemReused(t *testing.T) {
	raw := t.TempDir()
	day := filepath.Join(raw, "2024-06-01")
	touch(t, filepath.Join(day, "recA", "0900.flac"))
	touch(t, filepath.Join(day, "recB", "0900.flac"))

	matches, err := twoDeviceMatchmaker(1).Match(day, raw)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	want := filepath.Join(raw, "2024-06-01", "recA-recB", "0900.flac")
	if _, ok := matches[want]; !ok {
		t.Errorf("expected shared stem to be reused, got %v", matches)
	}
}

func TestMatchSkipsUnparseableNames(t *testing.T) {
	raw := t.TempDir()
	day := filepath.Join(raw, "2024-06-01")
	touch(t, filepath.Join(day, "recA", "unparsed.flac"))
	touch(t, filepath.Join(day, "recA", "0900.flac"))
	touch(t, filepath.Join(day, "recB", "0900.flac"))

	matches, err := twoDeviceMatchmaker(1).Match(day, raw)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	for _, pair := range matches {
		if filepath.Base(pair.Left.Path) == "unparsed.flac" ||
			filepath.Base(pair.Right.Path) == "unparsed.flac" {
			t.Error("unparseable recording appeared in a match")
		}
	}
}

func TestMatchMultipleCandidatesAllowed(t *testing.T) {
	// One recording may pair with several recordings from the other device;
	// one-to-one assignment is deliberately not enforced.
	raw := t.TempDir()
	day := filepath.Join(raw, "2024-06-01")
	touch(t, filepath.Join(day, "recA", "0900.flac"))
	touch(t, filepath.Join(day, "recB", "0859.flac"))
	touch(t, filepath.Join(day, "recB", "0901.flac"))

	matches, err := twoDeviceMatchmaker(1).Match(day, raw)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("expected 2 matches, got %d: %v", len(matches), matches)
	}
}

func TestMatchInjectedOrder(t *testing.T) {
	raw := t.TempDir()
	day := filepath.Join(raw, "2024-06-01")
	touch(t, filepath.Join(day, "recA", "0900.flac"))
	touch(t, filepath.Join(day, "recB", "0900.flac"))

	// Reverse ordering flips which device supplies the left channel.
	reverse := func(a, b DeviceInfo) bool { return !ByChannelPreference(a, b) }
	m := New([]DeviceInfo{
		{Name: "recA", PreferChannel: "left"},
		{Name: "recB", PreferChannel: "right"},
	}, 1, reverse)

	matches, err := m.Match(day, raw)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	want := filepath.Join(raw, "2024-06-01", "recB-recA", "0900.flac")
	pair, ok := matches[want]
	if !ok {
		t.Fatalf("expected output path %s, got %v", want, matches)
	}
	if pair.Left.Device != "recB" {
		t.Errorf("left device = %s, want recB", pair.Left.Device)
	}
}

func TestMatchReportsOutputPathCollision(t *testing.T) {
	raw := t.TempDir()
	day := filepath.Join(raw, "2024-06-01")
	// Hyphens in stems make two distinct pairs derive the same output name.
	touch(t, filepath.Join(day, "recA", "0900.flac"))
	touch(t, filepath.Join(day, "recA", "0900-0901.flac"))
	touch(t, filepath.Join(day, "recB", "0901-0902.flac"))
	touch(t, filepath.Join(day, "recB", "0902.flac"))

	_, err := twoDeviceMatchmaker(2).Match(day, raw)
	if err == nil {
		t.Fatal("expected a collision error, got nil")
	}
}
