package analysis

import "sync"

// ring is a fixed-size sample ring written by the capture callback and
// snapshotted by whichever goroutine runs the estimator.
type ring struct {
	mu     sync.Mutex
	buf    []float32
	pos    int
	filled bool
}

func newRing(size int) *ring {
	return &ring{buf: make([]float32, size)}
}

func (r *ring) write(in []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range in {
		r.buf[r.pos] = s
		r.pos++
		if r.pos == len(r.buf) {
			r.pos = 0
			r.filled = true
		}
	}
}

// snapshot copies the most recent len(dst) samples into dst, oldest first.
// Returns false until enough samples have been written.
func (r *ring) snapshot(dst []float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(dst)
	if n > len(r.buf) {
		return false
	}
	have := r.pos
	if r.filled {
		have = len(r.buf)
	}
	if have < n {
		return false
	}
	start := r.pos - n
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < n; i++ {
		dst[i] = float64(r.buf[(start+i)%len(r.buf)])
	}
	return true
}
