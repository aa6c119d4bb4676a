package spectrum

import "math"

// fftPlan holds the bit-reversal permutation and twiddle factors for one
// power-of-two size.
type fftPlan struct {
	n   int
	rev []int
	cos []float64
	sin []float64
}

func newFFTPlan(n int) *fftPlan {
	p := &fftPlan{
		n:   n,
		rev: make([]int, n),
		cos: make([]float64, n/2),
		sin: make([]float64, n/2),
	}
	bits := 0
	for 1<<bits < n {
		bits++
	}
	for i := range n {
		r := 0
		for b := range bits {
			if i&(1<<b) != 0 {
				r |= 1 << (bits - 1 - b)
			}
		}
		p.rev[i] = r
	}
	for k := range n / 2 {
		angle := -2 * math.Pi * float64(k) / float64(n)
		p.cos[k] = math.Cos(angle)
		p.sin[k] = math.Sin(angle)
	}
	return p
}

// transform runs an in-place radix-2 FFT over re/im.
func (p *fftPlan) transform(re, im []float64) {
	n := p.n
	for i, r := range p.rev {
		if i < r {
			re[i], re[r] = re[r], re[i]
			im[i], im[r] = im[r], im[i]
		}
	}
	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		step := n / size
		for start := 0; start < n; start += size {
			for k := range half {
				wr, wi := p.cos[k*step], p.sin[k*step]
				u, v := start+k, start+k+half
				tr := wr*re[v] - wi*im[v]
				ti := wr*im[v] + wi*re[v]
				re[v], im[v] = re[u]-tr, im[u]-ti
				re[u] += tr
				im[u] += ti
			}
		}
	}
}
