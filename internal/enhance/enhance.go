// Package enhance runs exported recordings through an external denoiser.
package enhance

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/t184256/autosync-voice/internal/media"
)

// Enhancer invokes the deepfilternet denoiser as an opaque external filter.
type Enhancer struct{}

// New returns an enhancer.
func New() *Enhancer {
	return &Enhancer{}
}

// Enhance denoises in and writes the result to out: the input is resampled
// to the 48 kHz mono WAV the model expects, filtered, transcoded back and
// renamed into place only on success.
func (e *Enhancer) Enhance(ctx context.Context, out, in string) error {
	tempDir, err := os.MkdirTemp("", "autosync-voice-*")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	wav := filepath.Join(tempDir, "mono.wav")
	if err := media.ToMonoWAV(ctx, in, wav, 48000); err != nil {
		return err
	}

	denoised, err := denoise48k(ctx, wav, tempDir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(out), err)
	}
	ext := filepath.Ext(out)
	tmp := strings.TrimSuffix(out, ext) + ".tmp" + ext
	if err := media.Transcode(ctx, denoised, tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, out); err != nil {
		return fmt.Errorf("renaming %s into place: %w", tmp, err)
	}
	return nil
}

// denoise48k runs deepfilternet on a 48 kHz WAV. The tool processes its input
// in place inside the output directory, so the input is copied there first.
func denoise48k(ctx context.Context, in, tempDir string) (string, error) {
	tmp := filepath.Join(tempDir, "tmp.wav")
	if err := copyFile(in, tmp); err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, "deepfilternet",
		"-o", tempDir, "--pf", "-D", "-a", "10", tmp)
	slog.Debug("running deepfilternet", "command", strings.Join(cmd.Args, " "))
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("deepfilternet failed: %w\nOutput: %s", err, string(output))
	}
	return tmp, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
