package huffman

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/nemuru-pigeon/huffman/bitstream"
)

// Decoder decodes symbols from a bit source by walking a tree.
type Decoder[S comparable] struct {
	tree    *Tree[S]
	r       *bitstream.Reader
	partial int
	err     error
}

// NewDecoder returns a Decoder reading at most nbits bits of packed MSB-first
// data from r. A negative nbits reads until r is exhausted.
func NewDecoder[S comparable](t *Tree[S], r io.Reader, nbits int64) *Decoder[S] {
	return &Decoder[S]{tree: t, r: bitstream.NewReader(r, nbits)}
}

// Next returns the next symbol, or io.EOF once the input is exhausted.
// Bits left over after the last complete code are dropped; Truncated
// reports whether that happened.
func (d *Decoder[S]) Next() (S, error) {
	var zero S
	if d.err != nil {
		return zero, d.err
	}
	if d.tree == nil || d.tree.root == nil {
		d.err = fmt.Errorf("%w: nil tree", ErrDecodeTreeMismatch)
		return zero, d.err
	}

	cur := d.tree.root
	d.partial = 0
	for {
		bit, err := d.r.ReadBit()
		if err != nil {
			d.err = err
			return zero, err
		}
		d.partial++

		next := cur.left
		if bit == 1 {
			next = cur.right
		}
		if next == nil {
			d.err = fmt.Errorf("%w at bit %d", ErrDecodeTreeMismatch, d.r.Offset()-1)
			return zero, d.err
		}
		if next.leaf {
			d.partial = 0
			return next.symbol, nil
		}
		cur = next
	}
}

// Truncated reports whether the input ended inside a code.
func (d *Decoder[S]) Truncated() bool {
	return d.partial > 0
}

// PartialBits returns the number of bits of the incomplete trailing code.
func (d *Decoder[S]) PartialBits() int {
	return d.partial
}

// DecodeResult holds the symbols recovered from a bitstream.
type DecodeResult[S comparable] struct {
	Symbols []S
	// Truncated is set when the bitstream ended inside a code; the partial
	// symbol is not part of Symbols.
	Truncated   bool
	PartialBits int
}

// DecodeAll decodes every complete code of bits and reports whether a
// trailing partial code was dropped.
func DecodeAll[S comparable](bits *bitstream.Bitstream, t *Tree[S]) (DecodeResult[S], error) {
	d := NewDecoder(t, bytes.NewReader(bits.Bytes()), int64(bits.Len()))
	var symbols []S
	for {
		s, err := d.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return DecodeResult[S]{}, err
		}
		symbols = append(symbols, s)
	}
	return DecodeResult[S]{
		Symbols:     symbols,
		Truncated:   d.Truncated(),
		PartialBits: d.PartialBits(),
	}, nil
}

// Decode walks t with the bits of bits and returns the symbols of every
// complete code in order. A partial code at the end is dropped silently.
// It fails with ErrDecodeTreeMismatch if a bit leads to a missing child.
func Decode[S comparable](bits *bitstream.Bitstream, t *Tree[S]) ([]S, error) {
	res, err := DecodeAll(bits, t)
	if err != nil {
		return nil, err
	}
	return res.Symbols, nil
}
