package spectrum

import (
	"math"
	"math/rand/v2"
	"testing"
)

func noise(r *rand.Rand, n int, amp float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16((r.Float64()*2 - 1) * amp * 32767)
	}
	return out
}

func TestFFTPlan(t *testing.T) {
	// A cosine at bin 4 puts N/2 into bins 4 and N-4.
	const n = 64
	p := newFFTPlan(n)
	re := make([]float64, n)
	im := make([]float64, n)
	for i := range re {
		re[i] = math.Cos(2 * math.Pi * 4 * float64(i) / n)
	}
	p.transform(re, im)
	for k := range n {
		mag := math.Hypot(re[k], im[k])
		want := 0.0
		if k == 4 || k == n-4 {
			want = n / 2
		}
		if math.Abs(mag-want) > 1e-9 {
			t.Errorf("bin %d mag=%v want=%v", k, mag, want)
		}
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"defaults", Config{}, true},
		{"not power of two", Config{FFTSize: 100}, false},
		{"too small", Config{FFTSize: 16}, false},
		{"bad smoothing", Config{Smoothing: 1.5}, false},
		{"bad range", Config{MinDecibels: -10, MaxDecibels: -20}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if (err == nil) != tt.ok {
				t.Errorf("err=%v", err)
			}
		})
	}
}

func TestLevelSilence(t *testing.T) {
	a, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	a.Write(make([]int16, 256))
	if got := a.Level(); got != 0 {
		t.Errorf("level=%v", got)
	}
}

func TestLevelNoiseAboveActivity(t *testing.T) {
	a, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	r := rand.New(rand.NewPCG(1, 2))
	var level float64
	for range 10 {
		a.Write(noise(r, 256, 0.5))
		level = a.Level()
	}
	if level <= 30 {
		t.Errorf("noise level=%v, want > 30", level)
	}
	if bins := a.ByteFrequencyData(nil); len(bins) != 128 {
		t.Errorf("bins=%d", len(bins))
	}
}

func TestLevelSmoothingDecays(t *testing.T) {
	a, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	r := rand.New(rand.NewPCG(3, 4))
	for range 10 {
		a.Write(noise(r, 256, 0.5))
		a.Level()
	}
	a.Write(make([]int16, 256))
	first := a.Level()
	if first == 0 {
		t.Fatal("smoothing should keep energy for one frame")
	}
	second := a.Level()
	if second >= first {
		t.Errorf("level did not decay: %v -> %v", first, second)
	}

	a.Reset()
	if got := a.Level(); got != 0 {
		t.Errorf("after reset level=%v", got)
	}
}
