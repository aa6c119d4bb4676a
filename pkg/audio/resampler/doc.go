// Package resampler converts mono 16-bit PCM between sample rates using a
// pure Go resampler (no CGO/FFI dependencies).
//
// A Converter is stateful: feed it consecutive frames of one stream so the
// filter history carries across frame boundaries.
//
//	c, err := resampler.New(24000, 8000)
//	if err != nil {
//	    return err
//	}
//	out, err := c.Process(frame)
package resampler
