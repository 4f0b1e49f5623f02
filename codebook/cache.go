// Package codebook keeps trained Huffman models in a bounded cache keyed by
// the fingerprint of their frequency table.
//
// Two samples with identical frequency tables, in identical table order,
// produce identical trees, so they share one cached model.
package codebook

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nemuru-pigeon/huffman"
)

// DefaultSize is the number of models a cache holds when no size is given.
const DefaultSize = 128

// ErrInvalidID indicates a codebook id that is not 16 hex digits.
var ErrInvalidID = errors.New("invalid codebook id")

// Cache is a concurrency-safe LRU cache of trained models.
type Cache[S comparable] struct {
	models *lru.Cache[uint64, *huffman.Model[S]]
	codec  huffman.SymbolCodec[S]
}

// New returns a cache holding at most size models. A size of zero or less
// selects DefaultSize.
func New[S comparable](size int, codec huffman.SymbolCodec[S]) (*Cache[S], error) {
	if size <= 0 {
		size = DefaultSize
	}
	models, err := lru.New[uint64, *huffman.Model[S]](size)
	if err != nil {
		return nil, fmt.Errorf("create codebook cache: %w", err)
	}
	return &Cache[S]{models: models, codec: codec}, nil
}

// Fingerprint hashes the serialized form of t.
func Fingerprint[S comparable](t *huffman.FrequencyTable[S], codec huffman.SymbolCodec[S]) uint64 {
	return xxhash.Sum64(huffman.AppendFrequencies(nil, t, codec))
}

// Train counts sample, in fill mode over alphabet when it is non-nil, and
// returns the id and model for the resulting table. A cached model is reused
// when the table was seen before.
func (c *Cache[S]) Train(sample []S, alphabet []S) (uint64, *huffman.Model[S], error) {
	table := huffman.CountFrequencies(sample, alphabet)
	id := Fingerprint(table, c.codec)
	if m, ok := c.models.Get(id); ok {
		return id, m, nil
	}

	m, err := huffman.ModelFromTable(table)
	if err != nil {
		return 0, nil, err
	}
	c.models.Add(id, m)
	return id, m, nil
}

// Get returns the model stored under id.
func (c *Cache[S]) Get(id uint64) (*huffman.Model[S], bool) {
	return c.models.Get(id)
}

// Len returns the number of cached models.
func (c *Cache[S]) Len() int {
	return c.models.Len()
}

// FormatID renders id as 16 lowercase hex digits.
func FormatID(id uint64) string {
	return fmt.Sprintf("%016x", id)
}

// ParseID parses an id produced by FormatID.
func ParseID(s string) (uint64, error) {
	if len(s) != 16 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	id, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}
