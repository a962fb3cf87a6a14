package prefix

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"
)

// errTable marks a malformed shipped table.
var errTable = errors.New("prefix: malformed code table")

// Code is a canonical k-ary prefix code over byte values.
type Code struct {
	arity int
	words [256][]int // nil for bytes without a codeword
	trie  []trieNode
}

type trieNode struct {
	child []int32 // -1 for none
	leaf  int     // byte value, -1 for internal nodes
}

// Lengths returns the codeword length of every coded byte.
func (c *Code) Lengths() map[byte]int {
	out := make(map[byte]int)
	for b, w := range c.words {
		if w != nil {
			out[byte(b)] = len(w)
		}
	}
	return out
}

// Word returns the codeword of b, or nil.
func (c *Code) Word(b byte) []int { return c.words[b] }

type hnode struct {
	weight int
	minID  int
	kids   []*hnode
	sym    int // -1 for internal and dummy nodes
}

type hqueue []*hnode

func (q hqueue) Len() int { return len(q) }
func (q hqueue) Less(i, j int) bool {
	if q[i].weight != q[j].weight {
		return q[i].weight < q[j].weight
	}
	return q[i].minID < q[j].minID
}
func (q hqueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *hqueue) Push(x any)   { *q = append(*q, x.(*hnode)) }
func (q *hqueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}

// huffmanLengths returns k-ary Huffman codeword lengths for every byte with
// a positive weight. Ties merge the node holding the smallest byte first.
//
// Complexity: O(N log N) for N coded bytes.
func huffmanLengths(weights [256]int, k int) map[byte]int {
	q := make(hqueue, 0, 256+k)
	for b, w := range weights {
		if w > 0 {
			q = append(q, &hnode{weight: w, minID: b, sym: b})
		}
	}
	dummy := 256
	addDummy := func() {
		q = append(q, &hnode{minID: dummy, sym: -1})
		dummy++
	}
	if len(q) < 2 {
		addDummy()
	}
	for (len(q)-1)%(k-1) != 0 {
		addDummy()
	}
	heap.Init(&q)
	for q.Len() > 1 {
		parent := &hnode{sym: -1, minID: 1 << 30}
		for i := 0; i < k; i++ {
			n := heap.Pop(&q).(*hnode)
			parent.weight += n.weight
			parent.minID = min(parent.minID, n.minID)
			parent.kids = append(parent.kids, n)
		}
		heap.Push(&q, parent)
	}

	out := make(map[byte]int)
	var walk func(n *hnode, depth int)
	walk = func(n *hnode, depth int) {
		if n.kids == nil {
			if n.sym >= 0 {
				out[byte(n.sym)] = depth
			}
			return
		}
		for _, c := range n.kids {
			walk(c, depth+1)
		}
	}
	walk(q[0], 0)
	return out
}

// canonical assigns k-ary canonical codewords to lengths and builds the
// decoding trie. It fails when the lengths violate the Kraft inequality.
func canonical(lengths map[byte]int, k int) (*Code, error) {
	type entry struct {
		b   byte
		len int
	}
	entries := make([]entry, 0, len(lengths))
	for b, l := range lengths {
		if l < 1 {
			return nil, fmt.Errorf("%w: byte %d has length %d", errTable, b, l)
		}
		entries = append(entries, entry{b, l})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty", errTable)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].len != entries[j].len {
			return entries[i].len < entries[j].len
		}
		return entries[i].b < entries[j].b
	})

	c := &Code{arity: k, trie: []trieNode{newTrieNode(k)}}
	var word []int
	for i, e := range entries {
		if i == 0 {
			word = make([]int, e.len)
		} else {
			if !increment(word, k) {
				return nil, fmt.Errorf("%w: lengths exceed the code space", errTable)
			}
			for len(word) < e.len {
				word = append(word, 0)
			}
		}
		c.words[e.b] = append([]int(nil), word...)
		c.insert(word, int(e.b))
	}
	return c, nil
}

// increment adds one to word as a base-k number; false on overflow.
func increment(word []int, k int) bool {
	for i := len(word) - 1; i >= 0; i-- {
		word[i]++
		if word[i] < k {
			return true
		}
		word[i] = 0
	}
	return false
}

func newTrieNode(k int) trieNode {
	n := trieNode{child: make([]int32, k), leaf: -1}
	for i := range n.child {
		n.child[i] = -1
	}
	return n
}

func (c *Code) insert(word []int, b int) {
	at := int32(0)
	for _, d := range word {
		next := c.trie[at].child[d]
		if next < 0 {
			next = int32(len(c.trie))
			c.trie = append(c.trie, newTrieNode(c.arity))
			c.trie[at].child[d] = next
		}
		at = next
	}
	c.trie[at].leaf = b
}

// decodeOne walks digits from i and returns the byte and the next index.
// ok is false when the walk leaves the trie or digits run out; next then
// holds the offending digit index.
func (c *Code) decodeOne(digits []int, i int) (b byte, next int, ok bool) {
	at := int32(0)
	for ; i < len(digits); i++ {
		at = c.trie[at].child[digits[i]]
		if at < 0 {
			return 0, i, false
		}
		if leaf := c.trie[at].leaf; leaf >= 0 {
			return byte(leaf), i + 1, true
		}
	}
	return 0, i, false
}

// uniformCode builds the equal-weight code for arity k.
func uniformCode(k int) *Code {
	var w [256]int
	for i := range w {
		w[i] = 1
	}
	c, err := canonical(huffmanLengths(w, k), k)
	if err != nil {
		panic(err) // equal weights always satisfy Kraft
	}
	return c
}

// streamCode builds the frequency code of the framed data stream.
func streamCode(blocks [][]byte, k int) *Code {
	var w [256]int
	for _, b := range blocks {
		for _, x := range b {
			w[x]++
		}
	}
	c, err := canonical(huffmanLengths(w, k), k)
	if err != nil {
		panic(err) // Huffman lengths always satisfy Kraft
	}
	return c
}

// marshalTable serializes c as n−1 followed by (byte, length) pairs in byte order.
func marshalTable(c *Code) []byte {
	lengths := c.Lengths()
	keys := make([]int, 0, len(lengths))
	for b := range lengths {
		keys = append(keys, int(b))
	}
	sort.Ints(keys)
	out := make([]byte, 0, 1+2*len(keys))
	out = append(out, byte(len(keys)-1))
	for _, b := range keys {
		out = append(out, byte(b), byte(lengths[byte(b)]))
	}
	return out
}

// unmarshalTable parses marshalTable output and rebuilds the code.
func unmarshalTable(raw []byte, k int) (*Code, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("%w: empty", errTable)
	}
	n := int(raw[0]) + 1
	if len(raw) < 1+2*n {
		return nil, fmt.Errorf("%w: %d bytes for %d entries", errTable, len(raw), n)
	}
	lengths := make(map[byte]int, n)
	for i := 0; i < n; i++ {
		b, l := raw[1+2*i], int(raw[2+2*i])
		if _, dup := lengths[b]; dup {
			return nil, fmt.Errorf("%w: duplicate byte %d", errTable, b)
		}
		lengths[b] = l
	}
	return canonical(lengths, k)
}
