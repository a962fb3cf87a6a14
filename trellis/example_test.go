package trellis_test

import (
	"context"
	"fmt"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/constraint"
	"github.com/mbiostore/mbio/trellis"
)

// ExampleCodec corrects a deleted symbol.
func ExampleCodec() {
	a, _ := alphabet.New(alphabet.Natural)
	c, _ := trellis.New(a, constraint.DefaultProfile())
	enc, _ := c.Encode(context.Background(), []byte("edits"))

	s := enc.Set.Sequences[0].Symbols
	enc.Set.Sequences[0].Symbols = append(s[:10:10], s[11:]...)

	dec, _ := c.Decode(context.Background(), enc.Set)
	fmt.Println(string(dec.Payload), dec.SymbolErrors)
	// Output: edits 1
}
