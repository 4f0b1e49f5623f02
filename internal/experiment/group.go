package experiment

// Group splits samples into tuples of size consecutive values, each rendered
// as a string so it can serve as a symbol. The last group holds the remainder
// and may be shorter. A size below 1 is treated as 1.
func Group(samples []byte, size int) []string {
	size = max(size, 1)
	groups := make([]string, 0, (len(samples)+size-1)/size)
	for i := 0; i < len(samples); i += size {
		groups = append(groups, string(samples[i:min(i+size, len(samples))]))
	}
	return groups
}

// Histogram counts the occurrences of every sample value.
func Histogram(samples []byte) [256]int {
	var h [256]int
	for _, s := range samples {
		h[s]++
	}
	return h
}
