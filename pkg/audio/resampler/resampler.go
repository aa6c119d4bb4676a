package resampler

import (
	"errors"
	"fmt"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"
)

// ErrClosed is returned by Process after Close.
var ErrClosed = errors.New("resampler: closed")

// Converter resamples a mono 16-bit stream from one rate to another. When the
// rates are equal it copies samples through unchanged.
type Converter struct {
	srcRate, dstRate int

	mu        sync.Mutex
	resampler resampling.Resampler
	closed    bool
	input     []float64
}

// New creates a Converter from srcRate to dstRate (Hz).
func New(srcRate, dstRate int) (*Converter, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("resampler: invalid rates %d -> %d", srcRate, dstRate)
	}
	c := &Converter{srcRate: srcRate, dstRate: dstRate}
	if srcRate != dstRate {
		rs, err := resampling.New(&resampling.Config{
			InputRate:  float64(srcRate),
			OutputRate: float64(dstRate),
			Channels:   1,
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create resampler: %w", err)
		}
		c.resampler = rs
	}
	return c, nil
}

// SrcRate returns the input sample rate.
func (c *Converter) SrcRate() int { return c.srcRate }

// DstRate returns the output sample rate.
func (c *Converter) DstRate() int { return c.dstRate }

// Process converts one frame. The returned slice may be shorter or longer
// than the ideal ratio for a single frame while the filter fills up.
func (c *Converter) Process(in []int16) ([]int16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.resampler == nil {
		out := make([]int16, len(in))
		copy(out, in)
		return out, nil
	}

	if cap(c.input) < len(in) {
		c.input = make([]float64, len(in))
	}
	input := c.input[:len(in)]
	for i, s := range in {
		input[i] = float64(s) / 32768.0
	}

	output, err := c.resampler.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}

	out := make([]int16, len(output))
	for i, s := range output {
		switch {
		case s >= 1.0:
			out[i] = 32767
		case s <= -1.0:
			out[i] = -32768
		default:
			out[i] = int16(s * 32767.0)
		}
	}
	return out, nil
}

// Close releases the underlying resampler. Subsequent Process calls fail
// with ErrClosed.
func (c *Converter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.resampler = nil
	return nil
}
