package huffman_test

import (
	"fmt"
	"slices"

	"github.com/nemuru-pigeon/huffman"
)

func Example() {
	input := []byte("abracadabra")

	m, err := huffman.TrainModel(input)
	if err != nil {
		panic(err)
	}
	for _, s := range []byte("abcdr") {
		fmt.Printf("%c %s\n", s, m.Codes()[s])
	}

	bits, err := m.Encode(input)
	if err != nil {
		panic(err)
	}
	fmt.Println(bits, bits.Len())

	out, err := m.Decode(bits)
	if err != nil {
		panic(err)
	}
	fmt.Println(string(out))
	// Output:
	// a 0
	// b 110
	// c 100
	// d 101
	// r 111
	// 01101110100010101101110 23
	// abracadabra
}

func ExampleDecodeAll() {
	codes, _ := huffman.TrainModel([]int{1, 2, 3})
	bits, _ := codes.Encode([]int{1, 2, 3})

	res, _ := codes.DecodeAll(bits.Truncate(bits.Len() - 2))
	fmt.Println(bits, res.Symbols, res.Truncated, res.PartialBits)

	res, _ = codes.DecodeAll(bits.Truncate(bits.Len() - 1))
	fmt.Println(slices.Equal(res.Symbols, []int{1, 2}), res.Truncated)
	// Output:
	// 10110 [1] true 1
	// true false
}

func ExampleWithAlphabet() {
	m, _ := huffman.TrainModel([]byte{5, 5, 5}, huffman.WithAlphabet(huffman.ByteAlphabet()))
	fmt.Println(m.TableSize(), m.Codes()[5])
	// Output:
	// 256 1
}
