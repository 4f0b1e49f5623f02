package huffman

import (
	"container/heap"
	"fmt"
)

// Node is a node of a Huffman tree. Leaves carry a symbol; internal nodes
// carry the summed frequency of their subtree.
type Node[S comparable] struct {
	symbol S
	leaf   bool
	freq   int
	left   *Node[S]
	right  *Node[S]
}

// Symbol returns the symbol of a leaf. ok is false for internal nodes.
func (n *Node[S]) Symbol() (s S, ok bool) {
	return n.symbol, n.leaf
}

// IsLeaf reports whether n carries a symbol.
func (n *Node[S]) IsLeaf() bool {
	return n.leaf
}

// Freq returns the frequency of n's subtree.
func (n *Node[S]) Freq() int {
	return n.freq
}

// Left returns the child reached by a 0 bit, or nil.
func (n *Node[S]) Left() *Node[S] {
	return n.left
}

// Right returns the child reached by a 1 bit, or nil.
func (n *Node[S]) Right() *Node[S] {
	return n.right
}

// Tree is an immutable Huffman tree.
type Tree[S comparable] struct {
	root   *Node[S]
	leaves int
	height int
}

// Root returns the root node.
func (t *Tree[S]) Root() *Node[S] {
	return t.root
}

// Leaves returns the number of symbols in the tree.
func (t *Tree[S]) Leaves() int {
	return t.leaves
}

// Height returns the length of the longest code.
func (t *Tree[S]) Height() int {
	return t.height
}

// queued is a heap entry. seq is the tie-breaker: leaves take their table
// index, merged nodes take increasing values after the last leaf.
type queued[S comparable] struct {
	node   *Node[S]
	seq    int
	height int
}

type nodeHeap[S comparable] []queued[S]

func (h nodeHeap[S]) Len() int { return len(h) }
func (h nodeHeap[S]) Less(i, j int) bool {
	if h[i].node.freq != h[j].node.freq {
		return h[i].node.freq < h[j].node.freq
	}
	return h[i].seq < h[j].seq
}
func (h nodeHeap[S]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap[S]) Push(x any)   { *h = append(*h, x.(queued[S])) }
func (h *nodeHeap[S]) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}

// BuildTree builds a Huffman tree from t.
//
// The two lowest-frequency nodes are merged repeatedly; the first one popped
// becomes the left (0) child. Equal frequencies pop in table order, and every
// merged node pops after all leaves of the same frequency.
//
// A table with a single entry yields a root with the leaf as its left child,
// so the only symbol is coded as "0".
func BuildTree[S comparable](t *FrequencyTable[S]) (*Tree[S], error) {
	if t.Len() == 0 {
		return nil, ErrEmptyAlphabet
	}

	h := make(nodeHeap[S], 0, t.Len())
	for i, s := range t.symbols {
		h = append(h, queued[S]{
			node: &Node[S]{symbol: s, leaf: true, freq: t.counts[i]},
			seq:  i,
		})
	}

	if len(h) == 1 {
		leaf := h[0].node
		return &Tree[S]{
			root:   &Node[S]{freq: leaf.freq, left: leaf},
			leaves: 1,
			height: 1,
		}, nil
	}

	heap.Init(&h)
	seq := len(h)
	for h.Len() > 1 {
		left := heap.Pop(&h).(queued[S])
		right := heap.Pop(&h).(queued[S])
		height := max(left.height, right.height) + 1
		if height > MaxCodeLen {
			return nil, fmt.Errorf("%w: depth %d exceeds %d", ErrCodeTooLong, height, MaxCodeLen)
		}
		heap.Push(&h, queued[S]{
			node: &Node[S]{
				freq:  left.node.freq + right.node.freq,
				left:  left.node,
				right: right.node,
			},
			seq:    seq,
			height: height,
		})
		seq++
	}

	return &Tree[S]{root: h[0].node, leaves: t.Len(), height: h[0].height}, nil
}
