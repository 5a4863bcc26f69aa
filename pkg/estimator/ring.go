package estimator

// ring is a fixed-capacity circular buffer of float32 values with an explicit
// cursor and fill count. It is allocated once at construction and overwritten
// in place, so pushing never allocates and tick timing stays deterministic.
type ring struct {
	buf     []float32
	scratch []float32 // reused by median to avoid per-tick allocation
	cursor  int
	count   int
}

func newRing(capacity int) ring {
	if capacity < 1 {
		capacity = 1
	}
	return ring{
		buf:     make([]float32, capacity),
		scratch: make([]float32, capacity),
	}
}

// push overwrites the oldest slot once the buffer is full.
func (r *ring) push(v float32) {
	r.buf[r.cursor] = v
	r.cursor = (r.cursor + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

func (r *ring) full() bool {
	return r.count == len(r.buf)
}

func (r *ring) len() int {
	return r.count
}

// mean averages the occupied slots only; a partially filled buffer averages
// over however many samples it holds.
func (r *ring) mean() float32 {
	if r.count == 0 {
		return 0
	}
	var sum float32
	for _, v := range r.buf[:r.count] {
		sum += v
	}
	return sum / float32(r.count)
}

// median sorts a copy of the occupied slots and returns the middle element,
// lower-middle on even counts.
func (r *ring) median() float32 {
	if r.count == 0 {
		return 0
	}
	s := r.scratch[:r.count]
	copy(s, r.buf[:r.count])

	// insertion sort; the windows are tiny
	for i := 1; i < len(s); i++ {
		v := s[i]
		j := i - 1
		for j >= 0 && s[j] > v {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = v
	}

	return s[(r.count-1)/2]
}

func (r *ring) reset() {
	r.cursor = 0
	r.count = 0
}
