package huffman

// Code is a prefix code of Len bits, stored in the low bits of Bits with the
// first bit most significant.
type Code struct {
	Bits uint64
	Len  uint8
}

// String renders the code as '0' and '1' characters.
func (c Code) String() string {
	buf := make([]byte, c.Len)
	for i := range buf {
		buf[i] = '0' + byte(c.Bits>>(int(c.Len)-1-i)&1)
	}
	return string(buf)
}

// HasPrefix reports whether p is a prefix of c. Every code has itself as a prefix.
func (c Code) HasPrefix(p Code) bool {
	return p.Len <= c.Len && c.Bits>>(c.Len-p.Len) == p.Bits
}

// CodeTable maps symbols to their codes.
type CodeTable[S comparable] map[S]Code

// Lookup returns the code of s.
func (ct CodeTable[S]) Lookup(s S) (Code, bool) {
	c, ok := ct[s]
	return c, ok
}

// EncodedLen returns the number of bits needed to encode a sequence with the
// counts of t. Symbols without a code are skipped.
func (ct CodeTable[S]) EncodedLen(t *FrequencyTable[S]) int {
	n := 0
	for s, count := range t.All() {
		n += count * int(ct[s].Len)
	}
	return n
}

// GenerateCodes walks t depth first and assigns each leaf the path leading to
// it, 0 for left and 1 for right.
func GenerateCodes[S comparable](t *Tree[S]) CodeTable[S] {
	codes := make(CodeTable[S])
	if t == nil {
		return codes
	}

	var walk func(n *Node[S], code Code)
	walk = func(n *Node[S], code Code) {
		if n == nil {
			return
		}
		if n.leaf {
			codes[n.symbol] = code
			return
		}
		walk(n.left, Code{Bits: code.Bits << 1, Len: code.Len + 1})
		walk(n.right, Code{Bits: code.Bits<<1 | 1, Len: code.Len + 1})
	}
	walk(t.root, Code{})
	return codes
}
