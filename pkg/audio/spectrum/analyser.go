// Package spectrum measures the short-term frequency-domain energy of a PCM
// stream. Analyser follows the conventions of a Web Audio AnalyserNode: a
// Blackman-windowed FFT, exponential smoothing across calls, and magnitudes
// mapped from a decibel range onto 0..255.
package spectrum

import (
	"fmt"
	"math"
	"sync"
)

// Config controls an Analyser.
type Config struct {
	// FFTSize is the transform size. Must be a power of two. Default 256.
	FFTSize int
	// Smoothing is the time constant in [0, 1) applied between frames.
	// Default 0.8.
	Smoothing float64
	// MinDecibels maps to byte value 0. Default -100.
	MinDecibels float64
	// MaxDecibels maps to byte value 255. Default -30.
	MaxDecibels float64
}

// DefaultConfig returns the analyser settings used for interruption
// detection.
func DefaultConfig() Config {
	return Config{FFTSize: 256, Smoothing: 0.8, MinDecibels: -100, MaxDecibels: -30}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FFTSize == 0 {
		c.FFTSize = d.FFTSize
	}
	if c.Smoothing == 0 {
		c.Smoothing = d.Smoothing
	}
	if c.MinDecibels == 0 && c.MaxDecibels == 0 {
		c.MinDecibels, c.MaxDecibels = d.MinDecibels, d.MaxDecibels
	}
	return c
}

// Analyser keeps the most recent FFTSize samples written to it and computes
// smoothed byte-scaled magnitudes on demand. It is safe for concurrent use.
type Analyser struct {
	cfg    Config
	plan   *fftPlan
	window []float64

	mu       sync.Mutex
	samples  []float64
	pos      int
	re, im   []float64
	smoothed []float64
	bins     []byte
}

// New creates an Analyser.
func New(cfg Config) (*Analyser, error) {
	cfg = cfg.withDefaults()
	n := cfg.FFTSize
	if n < 32 || n&(n-1) != 0 {
		return nil, fmt.Errorf("spectrum: fft size %d is not a power of two >= 32", n)
	}
	if cfg.Smoothing < 0 || cfg.Smoothing >= 1 {
		return nil, fmt.Errorf("spectrum: smoothing %v out of range", cfg.Smoothing)
	}
	if cfg.MinDecibels >= cfg.MaxDecibels {
		return nil, fmt.Errorf("spectrum: decibel range [%v, %v] is empty", cfg.MinDecibels, cfg.MaxDecibels)
	}
	a := &Analyser{
		cfg:      cfg,
		plan:     newFFTPlan(n),
		window:   blackman(n),
		samples:  make([]float64, n),
		re:       make([]float64, n),
		im:       make([]float64, n),
		smoothed: make([]float64, n/2),
		bins:     make([]byte, n/2),
	}
	return a, nil
}

// Bins returns the number of frequency bins (FFTSize/2).
func (a *Analyser) Bins() int { return a.cfg.FFTSize / 2 }

// Write appends samples to the analysis window.
func (a *Analyser) Write(samples []int16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.samples)
	if len(samples) > n {
		samples = samples[len(samples)-n:]
	}
	for _, s := range samples {
		a.samples[a.pos] = float64(s) / 32768
		a.pos = (a.pos + 1) % n
	}
}

// Reset clears the window and the smoothing history.
func (a *Analyser) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.samples)
	clear(a.smoothed)
	a.pos = 0
}

// ByteFrequencyData computes the current spectrum into dst (resized to
// Bins()) and returns it.
func (a *Analyser) ByteFrequencyData(dst []byte) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.compute()
	if cap(dst) < len(a.bins) {
		dst = make([]byte, len(a.bins))
	}
	dst = dst[:len(a.bins)]
	copy(dst, a.bins)
	return dst
}

// Level computes the current spectrum and returns the mean bin value on the
// 0..255 scale.
func (a *Analyser) Level() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.compute()
	sum := 0
	for _, b := range a.bins {
		sum += int(b)
	}
	return float64(sum) / float64(len(a.bins))
}

func (a *Analyser) compute() {
	n := len(a.samples)
	for i := range n {
		a.re[i] = a.samples[(a.pos+i)%n] * a.window[i]
		a.im[i] = 0
	}
	a.plan.transform(a.re, a.im)

	tau := a.cfg.Smoothing
	scale := 255 / (a.cfg.MaxDecibels - a.cfg.MinDecibels)
	for k := range a.smoothed {
		mag := math.Hypot(a.re[k], a.im[k]) / float64(n)
		a.smoothed[k] = tau*a.smoothed[k] + (1-tau)*mag

		db := math.Inf(-1)
		if a.smoothed[k] > 0 {
			db = 20 * math.Log10(a.smoothed[k])
		}
		v := math.Floor(scale * (db - a.cfg.MinDecibels))
		switch {
		case v < 0 || math.IsNaN(v):
			a.bins[k] = 0
		case v > 255:
			a.bins[k] = 255
		default:
			a.bins[k] = byte(v)
		}
	}
}

func blackman(n int) []float64 {
	const a0, a1, a2 = 0.42, 0.5, 0.08
	w := make([]float64, n)
	for i := range w {
		x := 2 * math.Pi * float64(i) / float64(n)
		w[i] = a0 - a1*math.Cos(x) + a2*math.Cos(2*x)
	}
	return w
}
