package importer

import (
	"strings"
	"testing"
	"time"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		name  string
		day   string
		label string
	}{
		{"240230_0203.WAV", "2024-02-30", "0203"},
		{"240230_0203.wav", "2024-02-30", "0203"},
		{"240230_0203_01.wav", "2024-02-30", "0203n1"},
		{"240230_0203_21.WAV", "2024-02-30", "0203n21"},
		{"2024-02-30 19.04.12.flac", "2024-02-30", "190412"},
	}
	for _, tt := range tests {
		day, label := SplitName(tt.name)
		if day != tt.day || label != tt.label {
			t.Errorf("SplitName(%q) = (%q, %q), want (%q, %q)",
				tt.name, day, label, tt.day, tt.label)
		}
	}
}

func TestSplitNameFallback(t *testing.T) {
	day, label := SplitName("something.ogg")
	if day != time.Now().Format("2006-01-02") {
		t.Errorf("fallback day = %q, want today", day)
	}
	if label != "unknown-something.ogg" {
		t.Errorf("fallback label = %q, want unknown-something.ogg", label)
	}
	if !strings.HasPrefix(day, "20") {
		t.Errorf("fallback day %q does not look like a date", day)
	}
}

func TestSplitNameDistinguishable(t *testing.T) {
	// A parsed label never carries the fallback prefix, so the two are
	// always tellable apart.
	parsedDay, parsedLabel := SplitName("240230_0203.WAV")
	_, fallbackLabel := SplitName("0203.WAV")
	if strings.HasPrefix(parsedLabel, "unknown-") {
		t.Errorf("parsed label %q carries the fallback prefix", parsedLabel)
	}
	if !strings.HasPrefix(fallbackLabel, "unknown-") {
		t.Errorf("fallback label %q misses the fallback prefix", fallbackLabel)
	}
	if parsedDay != "2024-02-30" {
		t.Errorf("parsed day = %q", parsedDay)
	}
}
