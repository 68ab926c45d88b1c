package align

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadMonoWAV decodes a PCM WAV file into a normalized mono waveform.
// Stereo files are downmixed by averaging; anything wider is rejected.
func ReadMonoWAV(path string) (Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return Waveform{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return Waveform{}, fmt.Errorf("%s is not a valid WAV file", path)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Waveform{}, fmt.Errorf("decoding %s: %w", path, err)
	}

	samples, err := toMonoFloat64(buf, int(decoder.BitDepth))
	if err != nil {
		return Waveform{}, fmt.Errorf("converting %s: %w", path, err)
	}
	return Waveform{Samples: samples, Rate: buf.Format.SampleRate}, nil
}

func toMonoFloat64(buf *audio.IntBuffer, bitDepth int) ([]float64, error) {
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	switch buf.Format.NumChannels {
	case 1:
		out := make([]float64, len(buf.Data))
		for i, s := range buf.Data {
			out[i] = float64(s) * scale
		}
		return out, nil
	case 2:
		frames := len(buf.Data) / 2
		out := make([]float64, frames)
		for i := 0; i < frames; i++ {
			l := float64(buf.Data[2*i]) * scale
			r := float64(buf.Data[2*i+1]) * scale
			out[i] = (l + r) * 0.5
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported channel count %d", buf.Format.NumChannels)
	}
}
