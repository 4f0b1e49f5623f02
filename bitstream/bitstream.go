// Package bitstream provides a packed sequence of bits with an exact length.
//
// Bits are stored most-significant-bit first, so the textual form of a
// Bitstream reads left to right in the order the bits were written.
package bitstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/icza/bitio"
)

const maxPayloadBytes = 1 << 30 // 1 GiB

var (
	// ErrInvalidLength indicates a bit length that does not fit the packed data.
	ErrInvalidLength = errors.New("invalid bit length")
	// ErrInvalidDigit indicates a textual bitstream containing something other than '0' or '1'.
	ErrInvalidDigit = errors.New("invalid binary digit")
)

// Bitstream is an immutable sequence of bits.
type Bitstream struct {
	data []byte // packed MSB-first, unused bits of the last byte are zero
	n    int    // number of valid bits
}

// FromBytes returns the first n bits of data as a Bitstream.
// The data is copied.
func FromBytes(data []byte, n int) (*Bitstream, error) {
	if n < 0 || byteLen(n) > len(data) {
		return nil, fmt.Errorf("%w: %d bits in %d bytes", ErrInvalidLength, n, len(data))
	}
	buf := append([]byte(nil), data[:byteLen(n)]...)
	if rest := n % 8; rest != 0 {
		buf[len(buf)-1] &= 0xFF << (8 - rest)
	}
	return &Bitstream{data: buf, n: n}, nil
}

// Parse reads a Bitstream from its textual form, e.g. "10110".
func Parse(s string) (*Bitstream, error) {
	w := NewWriter()
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
			w.WriteBit(0)
		case '1':
			w.WriteBit(1)
		default:
			return nil, fmt.Errorf("%w %q at offset %d", ErrInvalidDigit, s[i], i)
		}
	}
	return w.Bitstream()
}

func byteLen(bits int) int {
	return (bits + 7) / 8
}

// Len returns the number of bits.
func (b *Bitstream) Len() int {
	if b == nil {
		return 0
	}
	return b.n
}

// Bytes returns the packed bits. The slice must not be modified.
func (b *Bitstream) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// Bit returns bit i (0 or 1). It panics if i is out of range.
func (b *Bitstream) Bit(i int) uint8 {
	if i < 0 || i >= b.Len() {
		panic(fmt.Sprintf("bitstream: bit index %d out of range [0,%d)", i, b.Len()))
	}
	return b.data[i>>3] >> (7 - uint(i&7)) & 1
}

// String renders the bits as '0' and '1' characters.
func (b *Bitstream) String() string {
	var sb strings.Builder
	sb.Grow(b.Len())
	for i := 0; i < b.Len(); i++ {
		sb.WriteByte('0' + b.Bit(i))
	}
	return sb.String()
}

// Equal reports whether b and other hold the same bits.
func (b *Bitstream) Equal(other *Bitstream) bool {
	return b.Len() == other.Len() && bytes.Equal(b.Bytes(), other.Bytes())
}

// Reader returns a Reader over the bits of b.
func (b *Bitstream) Reader() *Reader {
	return NewReader(bytes.NewReader(b.Bytes()), int64(b.Len()))
}

// Truncate returns a Bitstream holding the first n bits of b.
// If n is not smaller than b.Len(), the result is a copy of b.
func (b *Bitstream) Truncate(n int) *Bitstream {
	if n < 0 {
		n = 0
	}
	if n > b.Len() {
		n = b.Len()
	}
	out, _ := FromBytes(b.Bytes(), n)
	return out
}

// Drop returns a Bitstream with the bits at the given indices removed.
// Indices outside [0, b.Len()) and duplicates are ignored.
func (b *Bitstream) Drop(indices ...int) *Bitstream {
	skip := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		skip[i] = struct{}{}
	}

	r := b.Reader()
	w := NewWriter()
	for i := 0; ; i++ {
		bit, err := r.ReadBit()
		if err != nil {
			break
		}
		if _, ok := skip[i]; ok {
			continue
		}
		w.WriteBit(bit)
	}
	out, _ := w.Bitstream()
	return out
}

// WriteTo writes the bit length as a uvarint followed by the packed bits.
func (b *Bitstream) WriteTo(w io.Writer) (int64, error) {
	var hdr [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(b.Len()))
	written, err := w.Write(hdr[:n])
	total := int64(written)
	if err != nil {
		return total, err
	}
	written, err = w.Write(b.Bytes())
	total += int64(written)
	if err == nil && written != len(b.Bytes()) {
		err = io.ErrShortWrite
	}
	return total, err
}

// ReadFrom reads a Bitstream written by WriteTo, replacing the contents of b.
func (b *Bitstream) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingByteReader{r: r}
	bits, err := binary.ReadUvarint(cr)
	if err != nil {
		return cr.n, fmt.Errorf("read bit length: %w", err)
	}
	if bits > uint64(maxPayloadBytes)*8 {
		return cr.n, fmt.Errorf("%w: %d bits exceeds limit", ErrInvalidLength, bits)
	}

	// grow with the data actually present rather than the declared length
	want := byteLen(int(bits))
	data, err := io.ReadAll(io.LimitReader(r, int64(want)))
	total := cr.n + int64(len(data))
	if err != nil {
		return total, fmt.Errorf("read %d packed bytes: %w", want, err)
	}
	if len(data) < want {
		return total, fmt.Errorf("read %d packed bytes: got %d: %w", want, len(data), io.ErrUnexpectedEOF)
	}
	if rest := int(bits) % 8; rest != 0 && data[len(data)-1]&(0xFF>>rest) != 0 {
		return total, fmt.Errorf("%w: non-zero padding after bit %d", ErrInvalidLength, bits)
	}

	b.data = data
	b.n = int(bits)
	return total, nil
}

type countingByteReader struct {
	r   io.Reader
	n   int64
	buf [1]byte
}

func (c *countingByteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(c.r, c.buf[:]); err != nil {
		return 0, err
	}
	c.n++
	return c.buf[0], nil
}

// Writer accumulates bits into a Bitstream.
type Writer struct {
	buf bytes.Buffer
	w   *bitio.Writer
	n   int
	err error
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	w := &Writer{}
	w.w = bitio.NewWriter(&w.buf)
	return w
}

// WriteBits appends the n lowest bits of v, most significant first.
func (w *Writer) WriteBits(v uint64, n uint8) error {
	if w.err != nil || n == 0 {
		return w.err
	}
	if n < 64 {
		v &= 1<<n - 1
	}
	if err := w.w.WriteBits(v, n); err != nil {
		w.err = err
		return err
	}
	w.n += int(n)
	return nil
}

// WriteBit appends one bit; any non-zero value is written as 1.
func (w *Writer) WriteBit(bit uint8) error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.WriteBool(bit != 0); err != nil {
		w.err = err
		return err
	}
	w.n++
	return nil
}

// Len returns the number of bits written so far.
func (w *Writer) Len() int {
	return w.n
}

// Bitstream flushes the writer and returns the accumulated bits.
// The Writer must not be used afterwards.
func (w *Writer) Bitstream() (*Bitstream, error) {
	if w.err != nil {
		return nil, w.err
	}
	if err := w.w.Close(); err != nil {
		return nil, err
	}
	return &Bitstream{data: w.buf.Bytes(), n: w.n}, nil
}

// Reader reads individual bits from packed MSB-first data.
type Reader struct {
	r         *bitio.Reader
	remaining int64
	offset    int64
}

// NewReader reads at most nbits bits from r. A negative nbits reads until r
// is exhausted, including any padding in the final byte.
func NewReader(r io.Reader, nbits int64) *Reader {
	return &Reader{r: bitio.NewReader(r), remaining: nbits}
}

// ReadBit returns the next bit. It returns io.EOF once nbits bits have been
// read or the underlying reader is exhausted.
func (r *Reader) ReadBit() (uint8, error) {
	if r.remaining == 0 {
		return 0, io.EOF
	}
	set, err := r.r.ReadBool()
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			err = io.EOF
		}
		return 0, err
	}
	if r.remaining > 0 {
		r.remaining--
	}
	r.offset++
	if set {
		return 1, nil
	}
	return 0, nil
}

// Offset returns the number of bits read so far.
func (r *Reader) Offset() int64 {
	return r.offset
}
