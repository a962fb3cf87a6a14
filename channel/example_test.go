package channel_test

import (
	"context"
	"fmt"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/channel"
	"github.com/mbiostore/mbio/sequence"
)

func ExampleSimulator_Run() {
	set := sequence.Set{Family: alphabet.Natural, Sequences: []sequence.Sequence{
		sequence.New("a", []byte("ACGTACGTAC")),
		sequence.New("b", []byte("GGCCTTAAGC")),
	}}
	out, stats, err := channel.NewSimulator(channel.WithSeed(7)).Run(context.Background(), set,
		channel.FullChain("None", "None", "None"))
	fmt.Println(out.Len(), stats.Events(), err)
	// Output:
	// 2 0 <nil>
}
