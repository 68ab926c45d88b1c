// Package align computes the relative delay between two recordings of the
// same session from their leading audio windows.
package align

import (
	"fmt"
	"log/slog"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Waveform is a mono signal at a known sample rate.
type Waveform struct {
	Samples []float64
	Rate    int
}

// Estimate describes how two signals line up.
//
// Delay is in samples at the shared rate: positive means the left signal must
// be delayed by Delay samples, negative means the right signal must be delayed
// by -Delay samples. LeftPad and RightPad are the zero-padding amounts each
// side needs appended so both end up the same length once the delay is
// applied.
type Estimate struct {
	Delay    int
	LeftPad  int
	RightPad int
}

// EstimateDelay cross-correlates the two waveforms via FFT and returns the
// sample-accurate delay and padding. Both inputs must already share a sample
// rate; resampling is the caller's job.
func EstimateDelay(left, right Waveform) (Estimate, error) {
	if left.Rate != right.Rate {
		return Estimate{}, fmt.Errorf("sample rates differ: left %d vs right %d", left.Rate, right.Rate)
	}
	ls := len(left.Samples)
	rs := len(right.Samples)
	if ls == 0 || rs == 0 {
		return Estimate{}, fmt.Errorf("empty waveform: left %d samples, right %d samples", ls, rs)
	}

	// Smallest power of two strictly greater than ls+rs, so the circular
	// correlation cannot wrap one signal into the other.
	padsize := 1
	for padsize <= ls+rs {
		padsize *= 2
	}

	lpad := make([]complex128, padsize)
	for i, s := range left.Samples {
		lpad[i] = complex(s, 0)
	}
	rpad := make([]complex128, padsize)
	for i, s := range right.Samples {
		rpad[i] = complex(s, 0)
	}

	lspec := fft.FFT(lpad)
	rspec := fft.FFT(rpad)
	prod := make([]complex128, padsize)
	for i := range prod {
		prod[i] = lspec[i] * cmplx.Conj(rspec[i])
	}
	corr := fft.IFFT(prod)

	xmax := 0
	best := 0.0
	for i, c := range corr {
		if mag := cmplx.Abs(c); mag > best {
			best = mag
			xmax = i
		}
	}

	var delay, lsNew, rsNew int
	if xmax > padsize/2 {
		// Wrapped (negative) lag: the left signal started later.
		delay = padsize - xmax
		lsNew, rsNew = delay+ls, rs
	} else {
		delay = -xmax
		lsNew, rsNew = ls, rs-delay
	}
	lenNew := lsNew
	if rsNew > lenNew {
		lenNew = rsNew
	}

	slog.Debug("delay estimated",
		"delay", delay, "left_pad", lenNew-lsNew, "right_pad", lenNew-rsNew,
		"padsize", padsize, "xmax", xmax)
	return Estimate{
		Delay:    delay,
		LeftPad:  lenNew - lsNew,
		RightPad: lenNew - rsNew,
	}, nil
}
