package huffman

import (
	"bytes"
	"slices"
	"testing"
)

func FuzzRoundTrip(f *testing.F) {
	f.Add([]byte("abracadabra"), false)
	f.Add([]byte{0, 0, 0, 1, 1, 2}, true)
	f.Add([]byte("A"), false)
	f.Add([]byte{}, true)

	f.Fuzz(func(t *testing.T, data []byte, fill bool) {
		var opts []Option[byte]
		if fill {
			opts = append(opts, WithAlphabet(ByteAlphabet()))
		}
		m, err := TrainModel(data, opts...)
		if len(data) == 0 && !fill {
			if err == nil {
				t.Fatal("expected an error for an empty alphabet")
			}
			return
		}
		if err != nil {
			t.Fatalf("TrainModel: %v", err)
		}

		bits, err := m.Encode(data)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		out, err := m.Decode(bits)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if !bytes.Equal(out, data) {
			t.Fatalf("round trip mismatch: got %x want %x", out, data)
		}

		// every truncation decodes to a prefix of the input
		for k := 1; k <= min(bits.Len(), 16); k++ {
			res, err := m.DecodeAll(bits.Truncate(bits.Len() - k))
			if err != nil {
				t.Fatalf("truncate %d: %v", k, err)
			}
			if !slices.Equal(res.Symbols, data[:len(res.Symbols)]) {
				t.Fatalf("truncate %d: not a prefix", k)
			}
		}
	})
}

func FuzzReadArchive(f *testing.F) {
	m, err := TrainModel([]byte("seed archive"))
	if err != nil {
		f.Fatal(err)
	}
	a, err := m.EncodeArchive([]byte("seed archive"), ByteCodec{})
	if err != nil {
		f.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := a.WriteTo(&buf); err != nil {
		f.Fatal(err)
	}
	f.Add(buf.Bytes())
	f.Add([]byte("HUFA"))

	f.Fuzz(func(t *testing.T, data []byte) {
		got := NewArchive[byte](ByteCodec{})
		if _, err := got.ReadFrom(bytes.NewReader(data)); err != nil {
			return
		}
		// a readable archive may still decode to an error, but must not panic
		_, _ = got.Decode()
	})
}
