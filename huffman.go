// Package huffman builds Huffman prefix codes from symbol frequencies and
// uses them to encode and decode bitstreams.
//
// A session counts a sample into a FrequencyTable, builds a Tree from it,
// derives a CodeTable, and then encodes sequences with the table and decodes
// bitstreams by walking the tree. Model bundles those steps. Trees, tables
// and trained models are immutable and safe for concurrent use.
package huffman

import "errors"

// MaxCodeLen is the longest code a Tree may assign.
const MaxCodeLen = 64

var (
	// ErrEmptyAlphabet indicates a tree was requested for a frequency table without entries.
	ErrEmptyAlphabet = errors.New("empty alphabet")
	// ErrUnknownSymbol indicates a symbol without a code in the code table.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrDecodeTreeMismatch indicates a bitstream that walks off the decoding tree.
	ErrDecodeTreeMismatch = errors.New("bitstream does not match tree")
	// ErrCodeTooLong indicates a tree deeper than MaxCodeLen.
	ErrCodeTooLong = errors.New("code too long")
	// ErrUntrainedModel indicates Encode or Decode was called before a model was trained.
	ErrUntrainedModel = errors.New("model is not trained")
)
