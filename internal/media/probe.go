package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ProbeResult is the subset of ffprobe output the pipeline cares about.
type ProbeResult struct {
	Streams []ProbeStream `json:"streams"`
	Format  ProbeFormat   `json:"format"`
}

type ProbeStream struct {
	Index      int    `json:"index"`
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

type ProbeFormat struct {
	Duration string `json:"duration"`
}

// Probe inspects a media file with ffprobe and decodes the JSON response.
func Probe(ctx context.Context, path string) (ProbeResult, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_format", "-show_streams",
		"-of", "json",
		"--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(string(output)))
	}
	return ParseProbe(output)
}

// ParseProbe decodes raw ffprobe JSON.
func ParseProbe(data []byte) (ProbeResult, error) {
	var result ProbeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return ProbeResult{}, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	return result, nil
}

// SampleRate returns the sample rate of the first audio stream.
func (r ProbeResult) SampleRate() (int, error) {
	for _, stream := range r.Streams {
		if stream.CodecType != "" && stream.CodecType != "audio" {
			continue
		}
		if stream.SampleRate == "" {
			continue
		}
		rate, err := strconv.Atoi(stream.SampleRate)
		if err != nil {
			return 0, fmt.Errorf("parsing sample rate %q: %w", stream.SampleRate, err)
		}
		return rate, nil
	}
	return 0, fmt.Errorf("no audio stream with a sample rate found")
}

// Duration returns the container duration in seconds.
func (r ProbeResult) Duration() (float64, error) {
	if r.Format.Duration == "" {
		return 0, fmt.Errorf("no duration in ffprobe output")
	}
	d, err := strconv.ParseFloat(r.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing duration %q: %w", r.Format.Duration, err)
	}
	return d, nil
}
