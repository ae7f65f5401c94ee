package battle

// Rand is a splitmix64-based deterministic generator. The simulation never
// uses math/rand directly: its generator algorithm is not part of Go's
// compatibility guarantee, so two peers on slightly different toolchains
// could silently diverge (§8 Determinism). A fixed, explicit algorithm
// with a single uint64 of state is also trivial to snapshot and restore
// for rollback, which an opaque *rand.Rand is not.
type Rand struct {
	state uint64
}

// NewRand seeds a generator. The same seed always produces the same
// sequence.
func NewRand(seed int64) *Rand {
	return &Rand{state: uint64(seed)}
}

// Uint64 returns the next value in the sequence.
func (r *Rand) Uint64() uint64 {
	r.state += 0x9E3779B97F4A7C15
	z := r.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Intn returns a deterministic value in [0, n). Returns 0 if n <= 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Uint64() % uint64(n))
}

// Float64 returns a deterministic value in [0.0, 1.0).
func (r *Rand) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

// Clone returns an independent copy carrying the same state, so a
// snapshot's generator can diverge from the live one without affecting it.
func (r *Rand) Clone() *Rand {
	return &Rand{state: r.state}
}
