package resampler

import (
	"errors"
	"math"
	"testing"
)

func sine(rate, n int, freq float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(8000 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestConverterPassthrough(t *testing.T) {
	c, err := New(8000, 8000)
	if err != nil {
		t.Fatal(err)
	}
	in := []int16{1, 2, 3, -4}
	out, err := c.Process(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("len=%d", len(out))
	}
	in[0] = 99
	if out[0] != 1 {
		t.Error("passthrough output aliases input")
	}
}

func TestConverterRatio(t *testing.T) {
	tests := []struct {
		src, dst int
	}{
		{24000, 8000},
		{8000, 24000},
		{16000, 48000},
	}
	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			c, err := New(tt.src, tt.dst)
			if err != nil {
				t.Fatal(err)
			}
			defer c.Close()

			frame := tt.src / 50
			signal := sine(tt.src, tt.src, 440)
			total := 0
			for i := 0; i+frame <= len(signal); i += frame {
				out, err := c.Process(signal[i : i+frame])
				if err != nil {
					t.Fatal(err)
				}
				total += len(out)
			}
			if total < tt.dst*8/10 || total > tt.dst+tt.dst/10 {
				t.Errorf("%d -> %d: produced %d samples for one second", tt.src, tt.dst, total)
			}
		})
	}
}

func TestConverterInvalid(t *testing.T) {
	if _, err := New(0, 8000); err == nil {
		t.Error("expected error")
	}
}

func TestConverterClosed(t *testing.T) {
	c, err := New(24000, 8000)
	if err != nil {
		t.Fatal(err)
	}
	c.Close()
	if _, err := c.Process([]int16{1}); !errors.Is(err, ErrClosed) {
		t.Errorf("err=%v", err)
	}
}
