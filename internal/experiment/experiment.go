// Package experiment measures how Huffman coding behaves on recorded samples:
// the cost of larger symbols, the amount of training data a code needs, and
// the damage done by lost bits.
package experiment

import (
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/nemuru-pigeon/huffman"
)

// Config holds the parameters of a Runner.
type Config struct {
	// GroupExponents is the number of group sizes GroupSizes tries: 1, 2, 4, ...
	GroupExponents int
	// Percentages are the training sample sizes, in percent of the training data.
	Percentages []int
	// BitsLost is the number of bits BitLoss removes.
	BitsLost int
	// Seed seeds the generator that picks lost bits and sampled files.
	Seed   uint64
	Logger *slog.Logger
}

// Option is a functional option for configuring a Runner.
type Option func(*Config)

// WithGroupExponents sets how many group sizes GroupSizes tries.
func WithGroupExponents(n int) Option {
	return func(c *Config) {
		c.GroupExponents = n
	}
}

// WithPercentages sets the training sample sizes.
func WithPercentages(p ...int) Option {
	return func(c *Config) {
		c.Percentages = p
	}
}

// WithBitsLost sets how many bits BitLoss removes.
func WithBitsLost(n int) Option {
	return func(c *Config) {
		c.BitsLost = n
	}
}

// WithSeed seeds the random choices of the runner.
func WithSeed(seed uint64) Option {
	return func(c *Config) {
		c.Seed = seed
	}
}

// WithLogger sets the logger progress is reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func defaultPercentages() []int {
	p := make([]int, 100)
	for i := range p {
		p[i] = i + 1
	}
	return p
}

// maxGroupExponents keeps the largest group size, 1<<62, within an int.
const maxGroupExponents = 63

// Runner runs experiments. It holds no state between runs.
type Runner struct {
	config Config
}

// NewRunner creates a runner with the provided options.
func NewRunner(opts ...Option) *Runner {
	cfg := Config{
		GroupExponents: 5,
		Percentages:    defaultPercentages(),
		BitsLost:       5,
		Seed:           42,
		Logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.GroupExponents = min(max(cfg.GroupExponents, 0), maxGroupExponents)
	cfg.BitsLost = max(cfg.BitsLost, 0)
	return &Runner{config: cfg}
}

// Config returns the runner's configuration.
func (r *Runner) Config() Config {
	return r.config
}

// GroupResult is the outcome of coding the samples in groups of GroupSize.
type GroupResult struct {
	GroupSize int
	TableSize int
	Symbols   int
	BitLen    int
	// Elapsed covers encoding and decoding, not training.
	Elapsed time.Duration
	OK      bool
	Err     error
}

func (g GroupResult) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("group_size", g.GroupSize),
		slog.Int("table_size", g.TableSize),
		slog.Int("symbols", g.Symbols),
		slog.Int("bits", g.BitLen),
		slog.Duration("elapsed", g.Elapsed),
		slog.Bool("ok", g.OK),
	}
	if g.Err != nil {
		attrs = append(attrs, slog.String("error", g.Err.Error()))
	}
	return slog.GroupValue(attrs...)
}

// GroupSizes codes samples with groups of 1, 2, 4, ... values as symbols.
// Every size is trained on the full grouped input. Sizes run concurrently;
// results are ordered by size.
func (r *Runner) GroupSizes(samples []byte) []GroupResult {
	results := make([]GroupResult, r.config.GroupExponents)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = codeGroups(samples, 1<<i)
			r.config.Logger.Debug("group size done", "result", results[i])
		}(i)
	}
	wg.Wait()
	return results
}

func codeGroups(samples []byte, size int) GroupResult {
	res := GroupResult{GroupSize: size}
	groups := Group(samples, size)
	res.Symbols = len(groups)

	m, err := huffman.TrainModel(groups)
	if err != nil {
		res.Err = err
		return res
	}
	res.TableSize = m.TableSize()

	start := time.Now()
	bits, err := m.Encode(groups)
	if err != nil {
		res.Err = err
		return res
	}
	decoded, err := m.Decode(bits)
	res.Elapsed = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}
	res.BitLen = bits.Len()
	res.OK = slices.Equal(decoded, groups)
	return res
}

// TrainingResult is the outcome of coding the target with a table trained on
// a prefix of the training data.
type TrainingResult struct {
	Percent     int
	TrainingLen int
	TableSize   int
	BitLen      int
	Elapsed     time.Duration
	OK          bool
	Err         error
}

func (t TrainingResult) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("percent", t.Percent),
		slog.Int("training_len", t.TrainingLen),
		slog.Int("table_size", t.TableSize),
		slog.Int("bits", t.BitLen),
		slog.Duration("elapsed", t.Elapsed),
		slog.Bool("ok", t.OK),
	}
	if t.Err != nil {
		attrs = append(attrs, slog.String("error", t.Err.Error()))
	}
	return slog.GroupValue(attrs...)
}

// TrainingPercentages trains a code on the first p percent of training for
// each configured p and uses it to code target. Tables are filled with every
// byte value so any target can be coded.
func (r *Runner) TrainingPercentages(training, target []byte) []TrainingResult {
	results := make([]TrainingResult, 0, len(r.config.Percentages))
	for _, p := range r.config.Percentages {
		p = min(max(p, 0), 100)
		res := TrainingResult{Percent: p, TrainingLen: len(training) * p / 100}

		m, err := huffman.TrainModel(training[:res.TrainingLen], huffman.WithAlphabet(huffman.ByteAlphabet()))
		if err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}
		res.TableSize = m.TableSize()

		start := time.Now()
		bits, err := m.Encode(target)
		if err == nil {
			var decoded []byte
			decoded, err = m.Decode(bits)
			res.BitLen = bits.Len()
			res.OK = err == nil && slices.Equal(decoded, target)
		}
		res.Elapsed = time.Since(start)
		res.Err = err

		r.config.Logger.Debug("training percentage done", "result", res)
		results = append(results, res)
	}
	return results
}

// BitLossResult is the outcome of decoding a bitstream with bits removed.
type BitLossResult struct {
	BitLen int
	// Removed holds the removed bit indices in ascending order.
	Removed []int
	Decoded int
	// MatchingPrefix is the number of leading symbols decoded correctly.
	MatchingPrefix int
	Truncated      bool
	OK             bool
	// Err is a decode failure. It is part of the outcome, not a failure of
	// the experiment.
	Err error
}

func (b BitLossResult) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("bits", b.BitLen),
		slog.Any("removed", b.Removed),
		slog.Int("decoded", b.Decoded),
		slog.Int("matching_prefix", b.MatchingPrefix),
		slog.Bool("truncated", b.Truncated),
		slog.Bool("ok", b.OK),
	}
	if b.Err != nil {
		attrs = append(attrs, slog.String("error", b.Err.Error()))
	}
	return slog.GroupValue(attrs...)
}

// BitLoss trains on samples, encodes them, removes BitsLost random bits and
// decodes the damaged stream.
// It fails only if samples cannot be coded at all.
func (r *Runner) BitLoss(samples []byte) (BitLossResult, error) {
	m, err := huffman.TrainModel(samples)
	if err != nil {
		return BitLossResult{}, err
	}
	bits, err := m.Encode(samples)
	if err != nil {
		return BitLossResult{}, err
	}

	prng := NewSimplePRNG(r.config.Seed)
	removed := prng.Sample(bits.Len(), r.config.BitsLost)
	slices.Sort(removed)
	res := BitLossResult{BitLen: bits.Len(), Removed: removed}

	decoded, err := m.DecodeAll(bits.Drop(removed...))
	if err != nil {
		if !errors.Is(err, huffman.ErrDecodeTreeMismatch) {
			return BitLossResult{}, err
		}
		res.Err = err
	}
	res.Decoded = len(decoded.Symbols)
	res.Truncated = decoded.Truncated
	res.MatchingPrefix = matchingPrefix(decoded.Symbols, samples)
	res.OK = err == nil && slices.Equal(decoded.Symbols, samples)

	r.config.Logger.Debug("bit loss done", "result", res)
	return res, nil
}

func matchingPrefix(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// PickFiles returns the indices of up to k of n files, chosen with the
// runner's seed.
func (r *Runner) PickFiles(n, k int) []int {
	return NewSimplePRNG(r.config.Seed).Sample(n, k)
}
