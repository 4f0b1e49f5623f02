package huffman

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrCorruptTable indicates a serialized frequency table that cannot be decoded.
var ErrCorruptTable = errors.New("corrupt frequency table")

// SymbolCodec serializes symbols for archives and fingerprints.
type SymbolCodec[S comparable] interface {
	// AppendSymbol appends the encoding of s to dst.
	AppendSymbol(dst []byte, s S) []byte
	// DecodeSymbol decodes one symbol from the start of src and returns the
	// number of bytes it used.
	DecodeSymbol(src []byte) (S, int, error)
}

// ByteCodec encodes byte symbols as themselves.
type ByteCodec struct{}

// AppendSymbol appends s as a single byte.
func (ByteCodec) AppendSymbol(dst []byte, s byte) []byte {
	return append(dst, s)
}

// DecodeSymbol returns the first byte of src.
func (ByteCodec) DecodeSymbol(src []byte) (byte, int, error) {
	if len(src) == 0 {
		return 0, 0, io.ErrUnexpectedEOF
	}
	return src[0], 1, nil
}

// StringCodec encodes string symbols with a uvarint length prefix.
type StringCodec struct{}

// AppendSymbol appends the length of s as a uvarint, then s.
func (StringCodec) AppendSymbol(dst []byte, s string) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

// DecodeSymbol decodes a length-prefixed string from the start of src.
func (StringCodec) DecodeSymbol(src []byte) (string, int, error) {
	n, k := binary.Uvarint(src)
	if k <= 0 {
		return "", 0, io.ErrUnexpectedEOF
	}
	if n > uint64(len(src)-k) {
		return "", 0, io.ErrUnexpectedEOF
	}
	end := k + int(n)
	return string(src[k:end]), end, nil
}

// AppendFrequencies appends t to dst: the entry count as a uvarint, then each
// symbol in table order followed by its count as a uvarint.
func AppendFrequencies[S comparable](dst []byte, t *FrequencyTable[S], codec SymbolCodec[S]) []byte {
	dst = binary.AppendUvarint(dst, uint64(t.Len()))
	for s, count := range t.All() {
		dst = codec.AppendSymbol(dst, s)
		dst = binary.AppendUvarint(dst, uint64(count))
	}
	return dst
}

// DecodeFrequencies decodes a table written by AppendFrequencies.
func DecodeFrequencies[S comparable](src []byte, codec SymbolCodec[S]) (*FrequencyTable[S], error) {
	entries, k := binary.Uvarint(src)
	if k <= 0 {
		return nil, fmt.Errorf("%w: bad entry count", ErrCorruptTable)
	}
	// every entry takes at least two bytes
	if entries > uint64(len(src)) {
		return nil, fmt.Errorf("%w: %d entries in %d bytes", ErrCorruptTable, entries, len(src))
	}
	pos := k

	t := NewFrequencyTable[S]()
	for i := 0; i < int(entries); i++ {
		s, n, err := codec.DecodeSymbol(src[pos:])
		if err != nil {
			return nil, fmt.Errorf("%w: symbol %d at offset %d: %v", ErrCorruptTable, i, pos, err)
		}
		pos += n
		count, n2 := binary.Uvarint(src[pos:])
		if n2 <= 0 || count > uint64(maxCount-t.Total()) {
			return nil, fmt.Errorf("%w: count of symbol %d at offset %d", ErrCorruptTable, i, pos)
		}
		pos += n2
		if _, dup := t.Count(s); dup {
			return nil, fmt.Errorf("%w: duplicate symbol %v at entry %d", ErrCorruptTable, s, i)
		}
		t.Add(s, int(count))
	}
	if pos != len(src) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptTable, len(src)-pos)
	}
	return t, nil
}

const maxCount = 1<<62 - 1
