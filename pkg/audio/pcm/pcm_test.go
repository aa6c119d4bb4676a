package pcm

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		f     Format
		rate  int
		bytes int
	}{
		{L16Mono8K, 8000, 320},
		{L16Mono16K, 16000, 640},
		{L16Mono24K, 24000, 960},
		{L16Mono48K, 48000, 1920},
	}
	for _, tt := range tests {
		t.Run(tt.f.String(), func(t *testing.T) {
			if tt.f.SampleRate() != tt.rate {
				t.Errorf("rate=%d", tt.f.SampleRate())
			}
			if got := tt.f.BytesInDuration(20 * time.Millisecond); got != tt.bytes {
				t.Errorf("bytes=%d", got)
			}
			if got := tt.f.Duration(tt.rate); got != time.Second {
				t.Errorf("duration=%v", got)
			}
			f, ok := FormatForRate(tt.rate)
			if !ok || f != tt.f {
				t.Errorf("FormatForRate(%d)=%v,%v", tt.rate, f, ok)
			}
		})
	}
	if _, ok := FormatForRate(44100); ok {
		t.Error("44100 should not map to a format")
	}
}

func TestInt16sRoundTrip(t *testing.T) {
	in := []int16{0, 1, -1, 32767, -32768, 1234}
	out, err := Int16s(Bytes(in))
	if err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("out[%d]=%d want=%d", i, out[i], in[i])
		}
	}
	if _, err := Int16s([]byte{1, 2, 3}); !errors.Is(err, ErrOddLength) {
		t.Errorf("err=%v", err)
	}
}

func TestDecodeBase64(t *testing.T) {
	s := EncodeBase64([]int16{0, 16384, -32768})
	got, err := DecodeBase64(s)
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{0, 0.5, -1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d]=%v want=%v", i, got[i], want[i])
		}
	}
	if _, err := DecodeBase64("!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
	if _, err := DecodeBase64("AAAA"); err == nil {
		t.Error("expected error for odd length")
	}
}

func TestFromFloat32sClips(t *testing.T) {
	got := FromFloat32s([]float32{2, -2, 0.5})
	if got[0] != 32767 || got[1] != -32768 || got[2] != 16384 {
		t.Errorf("got=%v", got)
	}
}

func TestUlawRoundTrip(t *testing.T) {
	for x := -32768; x <= 32767; x += 97 {
		s := int16(x)
		got := DecodeUlaw(EncodeUlaw([]int16{s}))[0]
		bound := (math.Abs(float64(x))+132)/16 + 1
		if diff := math.Abs(float64(got) - float64(x)); diff > bound {
			t.Fatalf("x=%d got=%d diff=%v bound=%v", x, got, diff, bound)
		}
	}
	if got := EncodeUlaw([]int16{0})[0]; got != 0xFF {
		t.Errorf("silence encodes to %#x", got)
	}
	if got := DecodeUlaw([]byte{0xFF})[0]; got != 0 {
		t.Errorf("0xff decodes to %d", got)
	}
}
