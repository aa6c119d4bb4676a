package pcm

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrOddLength is returned when PCM16 data has a trailing half sample.
var ErrOddLength = errors.New("pcm: odd byte length for 16-bit samples")

// Int16s decodes little-endian PCM16 bytes.
func Int16s(b []byte) ([]int16, error) {
	if len(b)%2 != 0 {
		return nil, ErrOddLength
	}
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(b[2*i]) | int16(b[2*i+1])<<8
	}
	return out, nil
}

// Bytes encodes samples as little-endian PCM16.
func Bytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[2*i] = byte(s)
		out[2*i+1] = byte(s >> 8)
	}
	return out
}

// Float32s converts samples to floats in [-1, 1) by dividing by 32768.
func Float32s(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768
	}
	return out
}

// FromFloat32s converts normalized floats back to 16-bit samples, clipping
// values outside [-1, 1].
func FromFloat32s(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		switch {
		case s >= 1:
			out[i] = 32767
		case s <= -1:
			out[i] = -32768
		default:
			out[i] = int16(s * 32768)
		}
	}
	return out
}

// DecodeBase64 decodes a base64 PCM16 payload into normalized float samples.
func DecodeBase64(s string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("pcm: decode base64: %w", err)
	}
	samples, err := Int16s(raw)
	if err != nil {
		return nil, err
	}
	return Float32s(samples), nil
}

// EncodeBase64 encodes samples as a base64 PCM16 payload.
func EncodeBase64(samples []int16) string {
	return base64.StdEncoding.EncodeToString(Bytes(samples))
}
