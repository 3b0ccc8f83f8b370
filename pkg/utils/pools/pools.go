package pools

import "sync"

// Float64SlicePool recycles float64 scratch slices between Monte Carlo calls.
// Payoff and terminal-value buffers are call-scoped, so pooling them avoids
// reallocating numPaths-sized slices on every valuation request.
type Float64SlicePool struct {
	pool sync.Pool
	size int
}

// NewFloat64SlicePool creates a pool of slices with the given initial capacity
func NewFloat64SlicePool(size int) *Float64SlicePool {
	return &Float64SlicePool{
		pool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, size)
			},
		},
		size: size,
	}
}

// Get retrieves an empty slice from the pool and grows it to n elements
func (p *Float64SlicePool) Get(n int) []float64 {
	s := p.pool.Get().([]float64)[:0]
	if cap(s) < n {
		s = make([]float64, n)
		return s
	}
	return s[:n]
}

// Put returns a slice to the pool. Undersized slices are left to the GC.
func (p *Float64SlicePool) Put(s []float64) {
	if cap(s) >= p.size {
		p.pool.Put(s[:0])
	}
}
