package huffman

import "github.com/nemuru-pigeon/huffman/bitstream"

// Config holds configuration for a Model.
type Config[S comparable] struct {
	// Alphabet, when non-nil, is added to every training table with zero
	// counts so that symbols missing from the sample still get a code.
	Alphabet []S
}

// Option is a functional option for configuring a Model.
type Option[S comparable] func(*Config[S])

// WithAlphabet enables fill mode over alphabet.
func WithAlphabet[S comparable](alphabet []S) Option[S] {
	return func(c *Config[S]) {
		c.Alphabet = alphabet
	}
}

// Model is a trained code: the frequency table, the tree built from it and
// the code table derived from the tree. A trained Model is read-only and may
// be shared between goroutines; Train must not run concurrently with other
// calls.
type Model[S comparable] struct {
	config Config[S]
	table  *FrequencyTable[S]
	tree   *Tree[S]
	codes  CodeTable[S]
}

// NewModel creates an untrained model with the provided options.
func NewModel[S comparable](opts ...Option[S]) *Model[S] {
	var cfg Config[S]
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Model[S]{config: cfg}
}

// TrainModel trains a model from a sample.
func TrainModel[S comparable](sample []S, opts ...Option[S]) (*Model[S], error) {
	m := NewModel(opts...)
	if err := m.Train(sample); err != nil {
		return nil, err
	}
	return m, nil
}

// ModelFromTable builds a model from a copy of t. Later changes to t do not
// affect the model.
func ModelFromTable[S comparable](t *FrequencyTable[S]) (*Model[S], error) {
	m := &Model[S]{}
	if err := m.trainTable(t.Clone()); err != nil {
		return nil, err
	}
	return m, nil
}

// Train counts sample and builds the tree and code table from it.
func (m *Model[S]) Train(sample []S) error {
	return m.trainTable(CountFrequencies(sample, m.config.Alphabet))
}

func (m *Model[S]) trainTable(t *FrequencyTable[S]) error {
	tree, err := BuildTree(t)
	if err != nil {
		return err
	}
	m.table = t
	m.tree = tree
	m.codes = GenerateCodes(tree)
	return nil
}

// Trained reports whether the model is ready for Encode and Decode.
func (m *Model[S]) Trained() bool {
	return m.tree != nil
}

// Encode encodes seq with the trained code table.
func (m *Model[S]) Encode(seq []S) (*bitstream.Bitstream, error) {
	if !m.Trained() {
		return nil, ErrUntrainedModel
	}
	return Encode(seq, m.codes)
}

// Decode decodes bits with the trained tree.
func (m *Model[S]) Decode(bits *bitstream.Bitstream) ([]S, error) {
	if !m.Trained() {
		return nil, ErrUntrainedModel
	}
	return Decode(bits, m.tree)
}

// DecodeAll decodes bits and reports whether a trailing partial code was dropped.
func (m *Model[S]) DecodeAll(bits *bitstream.Bitstream) (DecodeResult[S], error) {
	if !m.Trained() {
		return DecodeResult[S]{}, ErrUntrainedModel
	}
	return DecodeAll(bits, m.tree)
}

// Frequencies returns a copy of the training table.
func (m *Model[S]) Frequencies() *FrequencyTable[S] {
	if m.table == nil {
		return nil
	}
	return m.table.Clone()
}

// Tree returns the decoding tree.
func (m *Model[S]) Tree() *Tree[S] {
	return m.tree
}

// Codes returns the code table.
func (m *Model[S]) Codes() CodeTable[S] {
	return m.codes
}

// TableSize returns the number of entries in the code table.
func (m *Model[S]) TableSize() int {
	return len(m.codes)
}
