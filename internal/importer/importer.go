// Package importer copies recordings off a mounted device into raw storage,
// transcoding them to FLAC and filing them under their session day.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/t184256/autosync-voice/internal/media"
)

var (
	// Sony recorders, most of the time: YYMMDD_HHMM.WAV
	sonyRe = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})_(\d{4})\.(?:wav|WAV)$`)
	// Sony when recordings start within the same minute: YYMMDD_HHMM_NN.wav
	sonySeqRe = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})_(\d{4})_(\d{2})\.(?:wav|WAV)$`)
	// Android voice recorder: YYYY-MM-DD HH.MM.SS.flac
	androidRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2}) (\d{2})\.(\d{2})\.(\d{2})\.flac$`)
)

// SplitName splits a recording's filename into its session day and a time
// label. Unrecognized names get today's date and a fallback label that keeps
// the original name visible for manual handling.
func SplitName(name string) (day, label string) {
	if m := sonyRe.FindStringSubmatch(name); m != nil {
		return fmt.Sprintf("20%s-%s-%s", m[1], m[2], m[3]), m[4]
	}
	if m := sonySeqRe.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[5]) // trim leading zeroes
		return fmt.Sprintf("20%s-%s-%s", m[1], m[2], m[3]), fmt.Sprintf("%sn%d", m[4], n)
	}
	if m := androidRe.FindStringSubmatch(name); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3]), m[4] + m[5] + m[6]
	}
	today := time.Now().Format("2006-01-02")
	return today, "unknown-" + name
}

// ImportFiles moves every recording matching glob from a mounted device
// directory into raw storage as day/device/label.flac. Each file is
// transcoded to a temporary path, duration-checked against the original,
// atomically renamed into place and only then removed from the device.
func ImportFiles(ctx context.Context, devDir, devName, glob, rawDir string) error {
	files, err := filepath.Glob(filepath.Join(devDir, glob))
	if err != nil {
		return fmt.Errorf("globbing %s on %s: %w", glob, devDir, err)
	}

	for _, f := range files {
		if err := importOne(ctx, f, devDir, devName, rawDir); err != nil {
			return err
		}
	}
	return nil
}

func importOne(ctx context.Context, f, devDir, devName, rawDir string) error {
	day, label := SplitName(filepath.Base(f))
	outPath := filepath.Join(rawDir, day, devName, label+".flac")
	tmpPath := filepath.Join(rawDir, day, devName, label+".tmp.flac")
	slog.Debug("importing", "file", f, "target", outPath)

	if _, err := os.Stat(outPath); err == nil {
		return fmt.Errorf("import target %s already exists", outPath)
	}
	rel, _ := filepath.Rel(devDir, f)
	relOut, _ := filepath.Rel(rawDir, outPath)
	fmt.Printf("%s importing %s as %s\n", devName, rel, relOut)

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(outPath), err)
	}
	os.Remove(tmpPath)
	if err := media.Transcode(ctx, f, tmpPath); err != nil {
		return fmt.Errorf("transcoding %s: %w", f, err)
	}

	if err := checkDurations(ctx, f, tmpPath); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("renaming %s into place: %w", tmpPath, err)
	}
	if err := os.Remove(f); err != nil {
		return fmt.Errorf("removing device-side original %s: %w", f, err)
	}
	slog.Debug("imported", "file", f, "to", outPath)
	return nil
}

// checkDurations verifies the transcode did not lose audio.
func checkDurations(ctx context.Context, orig, transcoded string) error {
	origProbe, err := media.Probe(ctx, orig)
	if err != nil {
		return err
	}
	origDuration, err := origProbe.Duration()
	if err != nil {
		return err
	}
	postProbe, err := media.Probe(ctx, transcoded)
	if err != nil {
		return err
	}
	postDuration, err := postProbe.Duration()
	if err != nil {
		return err
	}
	slog.Debug("durations", "orig", origDuration, "flac", postDuration)
	if math.Abs(origDuration-postDuration) >= 1e-3 {
		return fmt.Errorf("duration mismatch after transcoding %s: %fs vs %fs",
			orig, origDuration, postDuration)
	}
	return nil
}
