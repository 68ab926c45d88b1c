// Package syncer aligns a pair of recordings of the same session and merges
// them into one stereo file.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/t184256/autosync-voice/internal/align"
	"github.com/t184256/autosync-voice/internal/media"
)

// Syncer merges recording pairs, estimating the delay from their leading
// windows.
type Syncer struct {
	WindowSeconds int
}

// New returns a syncer using the given leading-window length for delay
// estimation.
func New(windowSeconds int) *Syncer {
	return &Syncer{WindowSeconds: windowSeconds}
}

// Sync estimates the delay between left and right and merges them into out.
// The output is written to a temporary path and renamed into place only on
// success.
func (s *Syncer) Sync(ctx context.Context, out, left, right string) error {
	leftProbe, err := media.Probe(ctx, left)
	if err != nil {
		return err
	}
	leftRate, err := leftProbe.SampleRate()
	if err != nil {
		return err
	}
	rightProbe, err := media.Probe(ctx, right)
	if err != nil {
		return err
	}
	rightRate, err := rightProbe.SampleRate()
	if err != nil {
		return err
	}

	// Resample both to the higher rate so the estimator sees one rate.
	rate := leftRate
	if rightRate > rate {
		rate = rightRate
	}
	if leftRate != rightRate {
		slog.Debug("upsampling is required", "left_rate", leftRate, "right_rate", rightRate)
	}

	tempDir, err := os.MkdirTemp("", "autosync-voice-*")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	leftWAV := filepath.Join(tempDir, "left.wav")
	rightWAV := filepath.Join(tempDir, "right.wav")
	leftBeg := filepath.Join(tempDir, "lbeg.wav")
	rightBeg := filepath.Join(tempDir, "rbeg.wav")

	slog.Debug("downmixing the left track to mono WAV")
	if err := media.ToMonoWAV(ctx, left, leftWAV, rate); err != nil {
		return err
	}
	slog.Debug("downmixing the right track to mono WAV")
	if err := media.ToMonoWAV(ctx, right, rightWAV, rate); err != nil {
		return err
	}
	slog.Debug("extracting the beginning of the left track")
	if err := media.CutLeading(ctx, leftWAV, leftBeg, s.WindowSeconds); err != nil {
		return err
	}
	slog.Debug("extracting the beginning of the right track")
	if err := media.CutLeading(ctx, rightWAV, rightBeg, s.WindowSeconds); err != nil {
		return err
	}

	slog.Debug("calculating the delay between the tracks")
	leftWF, err := align.ReadMonoWAV(leftBeg)
	if err != nil {
		return err
	}
	rightWF, err := align.ReadMonoWAV(rightBeg)
	if err != nil {
		return err
	}
	est, err := align.EstimateDelay(leftWF, rightWF)
	if err != nil {
		return err
	}

	sr := float64(rate)
	fmt.Printf("  %s + %s + %s\n", fsec(float64(est.Delay)/sr), left, fsec(float64(est.LeftPad)/sr))
	fmt.Printf("+ %s + %s + %s\n", fsec(float64(-est.Delay)/sr), right, fsec(float64(est.RightPad)/sr))
	fmt.Printf("= %s\n", out)

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(out), err)
	}
	tmp := tmpPath(out)
	if err := media.MergeAligned(ctx, leftWAV, rightWAV, tmp, est.Delay, est.LeftPad, est.RightPad); err != nil {
		return err
	}
	if err := os.Rename(tmp, out); err != nil {
		return fmt.Errorf("renaming %s into place: %w", tmp, err)
	}
	return nil
}

func tmpPath(out string) string {
	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + ".tmp" + ext
}

// fsec renders a positive duration in seconds, or blanks so the alignment
// summary columns stay lined up.
func fsec(f float64) string {
	if f > 0 {
		return fmt.Sprintf("%5.3fs", f)
	}
	return strings.Repeat(" ", 6)
}
