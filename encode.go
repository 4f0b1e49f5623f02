package huffman

import (
	"fmt"

	"github.com/nemuru-pigeon/huffman/bitstream"
)

// Encode concatenates the codes of seq in order.
// It fails with ErrUnknownSymbol if a symbol of seq has no code.
func Encode[S comparable](seq []S, codes CodeTable[S]) (*bitstream.Bitstream, error) {
	w := bitstream.NewWriter()
	for i, s := range seq {
		c, ok := codes[s]
		if !ok {
			return nil, fmt.Errorf("%w %v at index %d", ErrUnknownSymbol, s, i)
		}
		if err := w.WriteBits(c.Bits, c.Len); err != nil {
			return nil, err
		}
	}
	return w.Bitstream()
}
