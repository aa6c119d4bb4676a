// Package interrupt detects the local speaker talking over the remote one.
package interrupt

import "time"

// Config holds the detector thresholds, in the 0-255 scale of an analyser's
// mean byte magnitude.
type Config struct {
	// Activity is the level above which the user is considered speaking.
	// Default 30.
	Activity float64

	// Silence is the level below which a sample counts as silent.
	// Default 20.
	Silence float64

	// Interval is how often the caller samples the level. Default 100ms.
	Interval time.Duration
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{Activity: 30, Silence: 20, Interval: 100 * time.Millisecond}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Activity <= 0 {
		c.Activity = d.Activity
	}
	if c.Silence <= 0 {
		c.Silence = d.Silence
	}
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	return c
}

// Detector turns level samples into interruption decisions. It is not safe
// for concurrent use.
type Detector struct {
	cfg Config
	now func() time.Time

	armed         bool
	silence       int
	interruptions int
	last          time.Time
}

// New creates a detector. Zero fields of cfg take their defaults.
func New(cfg Config) *Detector {
	return &Detector{cfg: cfg.withDefaults(), now: time.Now, armed: true}
}

// Config returns the effective configuration.
func (d *Detector) Config() Config { return d.cfg }

// Observe feeds one level sample and reports whether the in-flight response
// should be cancelled. It fires at most once per response: after firing it
// stays quiet until responding has been observed false.
func (d *Detector) Observe(level float64, responding bool) bool {
	if !responding {
		d.armed = true
	}
	switch {
	case level > d.cfg.Activity && responding:
		d.silence = 0
		if !d.armed {
			return false
		}
		d.armed = false
		d.interruptions++
		d.last = d.now()
		return true
	case level < d.cfg.Silence:
		d.silence++
	default:
		d.silence = 0
	}
	return false
}

// SilentSamples returns the number of consecutive silent samples.
func (d *Detector) SilentSamples() int { return d.silence }

// Interruptions returns how many times Observe fired.
func (d *Detector) Interruptions() int { return d.interruptions }

// LastInterruption returns when Observe last fired.
func (d *Detector) LastInterruption() time.Time { return d.last }

// Reset re-arms the detector and clears the counters.
func (d *Detector) Reset() {
	d.armed = true
	d.silence = 0
	d.interruptions = 0
	d.last = time.Time{}
}
