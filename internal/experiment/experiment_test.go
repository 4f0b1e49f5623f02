package experiment

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/nemuru-pigeon/huffman"
)

func testSamples() []byte {
	// a slow sine-like ramp, similar in shape to 8-bit PCM
	var buf bytes.Buffer
	for i := 0; i < 4096; i++ {
		v := i % 64
		if v >= 32 {
			v = 63 - v
		}
		buf.WriteByte(byte(112 + v))
	}
	return buf.Bytes()
}

func quietRunner(opts ...Option) *Runner {
	return NewRunner(append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)...)
}

func TestGroup(t *testing.T) {
	tests := []struct {
		in   string
		size int
		want []string
	}{
		{"abcdefg", 1, []string{"a", "b", "c", "d", "e", "f", "g"}},
		{"abcdefg", 2, []string{"ab", "cd", "ef", "g"}},
		{"abcdefg", 4, []string{"abcd", "efg"}},
		{"abcdefg", 16, []string{"abcdefg"}},
		{"abc", 0, []string{"a", "b", "c"}},
		{"", 4, []string{}},
	}
	for _, tc := range tests {
		got := Group([]byte(tc.in), tc.size)
		if !slices.Equal(got, tc.want) {
			t.Errorf("Group(%q, %d) = %q, want %q", tc.in, tc.size, got, tc.want)
		}
	}
}

func TestHistogram(t *testing.T) {
	h := Histogram([]byte{0, 0, 7, 255})
	if h[0] != 2 || h[7] != 1 || h[255] != 1 || h[1] != 0 {
		t.Fatalf("unexpected histogram: %v", h[:8])
	}
}

func TestDefaults(t *testing.T) {
	cfg := NewRunner().Config()
	if cfg.GroupExponents != 5 || cfg.BitsLost != 5 || cfg.Seed != 42 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.Percentages) != 100 || cfg.Percentages[0] != 1 || cfg.Percentages[99] != 100 {
		t.Fatalf("unexpected percentages: %v", cfg.Percentages)
	}
}

func TestGroupSizes(t *testing.T) {
	samples := testSamples()
	results := quietRunner(WithGroupExponents(4)).GroupSizes(samples)
	if len(results) != 4 {
		t.Fatalf("got %d results", len(results))
	}
	for i, res := range results {
		if res.Err != nil {
			t.Fatalf("size %d: %v", res.GroupSize, res.Err)
		}
		if res.GroupSize != 1<<i {
			t.Errorf("result %d has size %d", i, res.GroupSize)
		}
		if !res.OK {
			t.Errorf("size %d did not round trip", res.GroupSize)
		}
		if want := (len(samples) + res.GroupSize - 1) / res.GroupSize; res.Symbols != want {
			t.Errorf("size %d: %d symbols, want %d", res.GroupSize, res.Symbols, want)
		}
		if res.TableSize == 0 || res.BitLen == 0 {
			t.Errorf("size %d: empty result %+v", res.GroupSize, res)
		}
	}
	if results[0].TableSize != 32 {
		t.Errorf("single samples: table size %d, want 32", results[0].TableSize)
	}
}

func TestGroupExponentsAreClamped(t *testing.T) {
	r := quietRunner(WithGroupExponents(-1), WithBitsLost(-3))
	if cfg := r.Config(); cfg.GroupExponents != 0 || cfg.BitsLost != 0 {
		t.Fatalf("negative values not clamped: %+v", cfg)
	}
	if got := r.GroupSizes(testSamples()); len(got) != 0 {
		t.Fatalf("got %d results, want none", len(got))
	}
	if got := NewRunner(WithGroupExponents(1000)).Config().GroupExponents; got != maxGroupExponents {
		t.Fatalf("group exponents %d, want %d", got, maxGroupExponents)
	}
}

func TestGroupSizesEmptyInput(t *testing.T) {
	for _, res := range quietRunner(WithGroupExponents(2)).GroupSizes(nil) {
		if !errors.Is(res.Err, huffman.ErrEmptyAlphabet) {
			t.Fatalf("expected ErrEmptyAlphabet, got %v", res.Err)
		}
	}
}

func TestTrainingPercentages(t *testing.T) {
	samples := testSamples()
	results := quietRunner(WithPercentages(0, 1, 50, 100, 150)).TrainingPercentages(samples[:1024], samples)
	if len(results) != 5 {
		t.Fatalf("got %d results", len(results))
	}
	wantLen := []int{0, 10, 512, 1024, 1024}
	for i, res := range results {
		if res.Err != nil {
			t.Fatalf("%d%%: %v", res.Percent, res.Err)
		}
		if res.TrainingLen != wantLen[i] {
			t.Errorf("%d%%: trained on %d, want %d", res.Percent, res.TrainingLen, wantLen[i])
		}
		if res.TableSize != 256 {
			t.Errorf("%d%%: table size %d, want 256", res.Percent, res.TableSize)
		}
		if !res.OK {
			t.Errorf("%d%%: target did not round trip", res.Percent)
		}
	}
	if results[3].BitLen >= results[0].BitLen {
		t.Errorf("a trained table should beat an empty one: %d >= %d", results[3].BitLen, results[0].BitLen)
	}
}

func TestBitLoss(t *testing.T) {
	samples := testSamples()
	res, err := quietRunner(WithBitsLost(5), WithSeed(7)).BitLoss(samples)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Removed) != 5 || !slices.IsSorted(res.Removed) {
		t.Fatalf("removed %v", res.Removed)
	}
	for _, i := range res.Removed {
		if i < 0 || i >= res.BitLen {
			t.Fatalf("removed index %d out of range", i)
		}
	}
	if res.OK {
		t.Fatal("decoding should fail after bit loss")
	}
	if res.MatchingPrefix > res.Decoded || res.MatchingPrefix >= len(samples) {
		t.Fatalf("matching prefix %d of %d decoded", res.MatchingPrefix, res.Decoded)
	}

	again, err := quietRunner(WithBitsLost(5), WithSeed(7)).BitLoss(samples)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(again.Removed, res.Removed) || again.Decoded != res.Decoded {
		t.Fatal("same seed should remove the same bits")
	}
}

func TestBitLossNothingRemoved(t *testing.T) {
	samples := []byte(strings.Repeat("lossless", 8))
	res, err := quietRunner(WithBitsLost(0)).BitLoss(samples)
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.Truncated || res.MatchingPrefix != len(samples) {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestBitLossSingleSymbol(t *testing.T) {
	// a one-leaf code is all zero bits, so losing bits only shortens the output
	res, err := quietRunner(WithBitsLost(2)).BitLoss([]byte("zzzz"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Err != nil || res.Decoded != 2 || res.MatchingPrefix != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestBitLossEmpty(t *testing.T) {
	if _, err := quietRunner().BitLoss(nil); !errors.Is(err, huffman.ErrEmptyAlphabet) {
		t.Fatalf("expected ErrEmptyAlphabet, got %v", err)
	}
}

func TestSimplePRNGSample(t *testing.T) {
	p := NewSimplePRNG(1)
	got := p.Sample(10, 4)
	if len(got) != 4 {
		t.Fatalf("got %v", got)
	}
	seen := map[int]bool{}
	for _, v := range got {
		if v < 0 || v >= 10 || seen[v] {
			t.Fatalf("bad sample %v", got)
		}
		seen[v] = true
	}

	all := NewSimplePRNG(1).Sample(3, 8)
	slices.Sort(all)
	if !slices.Equal(all, []int{0, 1, 2}) {
		t.Fatalf("k >= n should return every value, got %v", all)
	}
	if NewSimplePRNG(1).Sample(0, 3) != nil {
		t.Fatal("empty range should return nil")
	}
	if !slices.Equal(NewSimplePRNG(9).Sample(100, 5), NewSimplePRNG(9).Sample(100, 5)) {
		t.Fatal("sample is not deterministic")
	}
}

func TestPickFiles(t *testing.T) {
	r := quietRunner(WithSeed(3))
	if got := r.PickFiles(2, 4); len(got) != 2 {
		t.Fatalf("got %v", got)
	}
	if !slices.Equal(r.PickFiles(20, 4), r.PickFiles(20, 4)) {
		t.Fatal("PickFiles is not deterministic")
	}
}
