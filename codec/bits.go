package codec

// ToValues splits data into width-bit values, most significant bit first.
// The final value is zero-padded on the right.
//
// Complexity: O(8·len(data)).
func ToValues(data []byte, width int) []int {
	total := len(data) * 8
	n := (total + width - 1) / width
	out := make([]int, n)
	for i := range out {
		v := 0
		for j := 0; j < width; j++ {
			bit := i*width + j
			v <<= 1
			if bit < total && data[bit>>3]>>(7-uint(bit&7))&1 == 1 {
				v |= 1
			}
		}
		out[i] = v
	}
	return out
}

// FromValues is the inverse of ToValues: it packs width-bit values and keeps
// floor(len(vals)·width/8) whole bytes, discarding the padding bits.
func FromValues(vals []int, width int) []byte {
	n := len(vals) * width / 8
	out := make([]byte, n)
	limit := n * 8
	for i, v := range vals {
		for j := 0; j < width; j++ {
			bit := i*width + j
			if bit >= limit {
				return out
			}
			if v>>(width-1-j)&1 == 1 {
				out[bit>>3] |= 1 << (7 - uint(bit&7))
			}
		}
	}
	return out
}

// ValuesFor returns how many width-bit values n bytes occupy.
func ValuesFor(n, width int) int {
	return (n*8 + width - 1) / width
}
