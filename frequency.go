package huffman

import "iter"

// FrequencyTable maps symbols to occurrence counts.
//
// Entries keep the order in which symbols were first added. BuildTree breaks
// frequency ties on that order, so equal tables built in the same order
// always produce the same tree.
type FrequencyTable[S comparable] struct {
	symbols []S
	counts  []int
	index   map[S]int
	total   int
}

// NewFrequencyTable returns an empty table.
func NewFrequencyTable[S comparable]() *FrequencyTable[S] {
	return &FrequencyTable[S]{index: make(map[S]int)}
}

// CountFrequencies counts the symbols of seq.
//
// If alphabet is non-nil, every alphabet member absent from seq is added with
// a zero count after the observed symbols (fill mode), so a tree built from
// the table can encode symbols the sample never contained.
func CountFrequencies[S comparable](seq []S, alphabet []S) *FrequencyTable[S] {
	t := &FrequencyTable[S]{index: make(map[S]int, min(len(seq), 1<<10)+len(alphabet))}
	for _, s := range seq {
		t.Add(s, 1)
	}
	for _, s := range alphabet {
		t.Add(s, 0)
	}
	return t
}

// ByteAlphabet returns every byte value, 0 through 255.
func ByteAlphabet() []byte {
	alphabet := make([]byte, 256)
	for i := range alphabet {
		alphabet[i] = byte(i)
	}
	return alphabet
}

// Add adds n occurrences of s, creating its entry if needed.
// Adding zero occurrences only creates the entry. It panics if n is negative.
func (t *FrequencyTable[S]) Add(s S, n int) {
	if n < 0 {
		panic("huffman: negative frequency")
	}
	if t.index == nil {
		t.index = make(map[S]int)
	}
	i, ok := t.index[s]
	if !ok {
		i = len(t.symbols)
		t.index[s] = i
		t.symbols = append(t.symbols, s)
		t.counts = append(t.counts, 0)
	}
	t.counts[i] += n
	t.total += n
}

// Len returns the number of distinct symbols in the table.
func (t *FrequencyTable[S]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.symbols)
}

// Total returns the sum of all counts.
func (t *FrequencyTable[S]) Total() int {
	if t == nil {
		return 0
	}
	return t.total
}

// Count returns the count of s and whether s has an entry.
func (t *FrequencyTable[S]) Count(s S) (int, bool) {
	if t == nil {
		return 0, false
	}
	i, ok := t.index[s]
	if !ok {
		return 0, false
	}
	return t.counts[i], true
}

// Symbols returns the symbols in table order.
func (t *FrequencyTable[S]) Symbols() []S {
	if t == nil {
		return nil
	}
	return append([]S(nil), t.symbols...)
}

// All yields every symbol and its count in table order.
func (t *FrequencyTable[S]) All() iter.Seq2[S, int] {
	return func(yield func(S, int) bool) {
		for i := 0; i < t.Len(); i++ {
			if !yield(t.symbols[i], t.counts[i]) {
				return
			}
		}
	}
}

// Clone returns an independent copy of t.
func (t *FrequencyTable[S]) Clone() *FrequencyTable[S] {
	c := NewFrequencyTable[S]()
	for s, n := range t.All() {
		c.Add(s, n)
	}
	return c
}
