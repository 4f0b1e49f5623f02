package experiment

// SimplePRNG is a Linear Congruential Generator. Experiments seeded with the
// same value pick the same bits and files on every platform.
type SimplePRNG struct {
	state uint64
}

// NewSimplePRNG creates a new PRNG with the given seed
func NewSimplePRNG(seed uint64) *SimplePRNG {
	return &SimplePRNG{state: seed}
}

// Next advances the generator.
// Multiplier and increment are Knuth's MMIX constants.
func (p *SimplePRNG) Next() uint64 {
	p.state = p.state*6364136223846793005 + 1442695040888963407
	return p.state
}

// Uint64N returns a random number in [0, n)
func (p *SimplePRNG) Uint64N(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	// the low bits of an LCG have short periods
	return (p.Next() >> 11) % n
}

// Shuffle performs an in-place Fisher-Yates shuffle
func (p *SimplePRNG) Shuffle(slice []int) {
	for i := len(slice) - 1; i > 0; i-- {
		j := int(p.Uint64N(uint64(i + 1)))
		slice[i], slice[j] = slice[j], slice[i]
	}
}

// Sample returns k distinct values from [0, n) in the order they were drawn.
// If k >= n every value is returned.
func (p *SimplePRNG) Sample(n, k int) []int {
	if n <= 0 || k <= 0 {
		return nil
	}
	if k >= n {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		p.Shuffle(all)
		return all
	}

	picked := make(map[int]struct{}, k)
	out := make([]int, 0, k)
	for len(out) < k {
		v := int(p.Uint64N(uint64(n)))
		if _, dup := picked[v]; dup {
			continue
		}
		picked[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
