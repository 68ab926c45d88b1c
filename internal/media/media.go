// Package media wraps the ffmpeg/ffprobe invocations the pipeline delegates
// its audio I/O to. The rest of the code never touches sample buffers except
// the short leading windows used for delay estimation.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

func runFFmpeg(ctx context.Context, args ...string) error {
	loglevel := os.Getenv("FFMPEG_LOGLEVEL")
	if loglevel == "" {
		loglevel = "error"
	}
	full := append([]string{"-v", loglevel, "-y"}, args...)
	cmd := exec.CommandContext(ctx, "ffmpeg", full...)
	slog.Debug("running ffmpeg", "command", strings.Join(cmd.Args, " "))

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w\nOutput: %s", err, string(output))
	}
	return nil
}

// Transcode converts in to out, with the target format inferred from the
// output extension. FLAC targets get maximum compression, matching how raw
// storage is kept.
func Transcode(ctx context.Context, in, out string) error {
	args := []string{"-i", in}
	if strings.HasSuffix(out, ".flac") {
		args = append(args, "-compression_level", "12")
	}
	args = append(args, out)
	return runFFmpeg(ctx, args...)
}

// ToMonoWAV downmixes in to a mono WAV at the given sample rate.
func ToMonoWAV(ctx context.Context, in, out string, sampleRate int) error {
	return runFFmpeg(ctx, "-i", in,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-c:a", "pcm_s16le",
		out)
}

// ResampleWAV converts in to a WAV at the given sample rate without changing
// the channel layout.
func ResampleWAV(ctx context.Context, in, out string, sampleRate int) error {
	return runFFmpeg(ctx, "-i", in,
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-c:a", "pcm_s16le",
		out)
}

// CutLeading copies the first seconds of in to out.
func CutLeading(ctx context.Context, in, out string, seconds int) error {
	return runFFmpeg(ctx, "-i", in, "-to", fmt.Sprintf("%d", seconds), out)
}

// MergeAligned joins two mono inputs into one stereo output, delaying and
// padding each side by the given sample counts so both channels line up and
// end at the same instant.
func MergeAligned(ctx context.Context, left, right, out string, delay, leftPad, rightPad int) error {
	filter := BuildMergeFilter(delay, leftPad, rightPad)
	return runFFmpeg(ctx,
		"-i", left,
		"-i", right,
		"-filter_complex", filter,
		"-map", "[out]",
		out)
}

// BuildMergeFilter assembles the adelay/apad/join filter graph for a merge.
// A positive delay shifts the left input, a negative one the right; the "S"
// suffix makes adelay interpret the amount in samples.
func BuildMergeFilter(delay, leftPad, rightPad int) string {
	var leftFilters, rightFilters []string
	if delay > 0 {
		leftFilters = append(leftFilters, fmt.Sprintf("adelay=%dS", delay))
	} else if delay < 0 {
		rightFilters = append(rightFilters, fmt.Sprintf("adelay=%dS", -delay))
	}
	if leftPad > 0 {
		leftFilters = append(leftFilters, fmt.Sprintf("apad=pad_len=%d", leftPad))
	}
	if rightPad > 0 {
		rightFilters = append(rightFilters, fmt.Sprintf("apad=pad_len=%d", rightPad))
	}

	chain := func(filters []string) string {
		if len(filters) == 0 {
			return "acopy"
		}
		return strings.Join(filters, ",")
	}

	return fmt.Sprintf("[0:a]%s[l];[1:a]%s[r];[l][r]join=inputs=2:channel_layout=stereo[out]",
		chain(leftFilters), chain(rightFilters))
}
