package syncer

import "testing"

func TestTmpPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/raw/2024-06-01/recA-recB/0900.flac", "/raw/2024-06-01/recA-recB/0900.tmp.flac"},
		{"out.opus", "out.tmp.opus"},
	}
	for _, tt := range tests {
		if got := tmpPath(tt.in); got != tt.want {
			t.Errorf("tmpPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFsec(t *testing.T) {
	if got := fsec(0.5); got != "0.500s" {
		t.Errorf("fsec(0.5) = %q", got)
	}
	if got := fsec(0); got != "      " {
		t.Errorf("fsec(0) = %q, want six blanks", got)
	}
	if got := fsec(-1.25); got != "      " {
		t.Errorf("fsec(-1.25) = %q, want six blanks", got)
	}
}
