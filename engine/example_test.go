package engine_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/channel"
	"github.com/mbiostore/mbio/codec"
	"github.com/mbiostore/mbio/constraint"
	"github.com/mbiostore/mbio/engine"
)

func ExampleDecode() {
	ctx := context.Background()
	log := engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	enc, _ := engine.Encode(ctx, []byte("HI"), alphabet.Natural, codec.Fountain, constraint.DefaultProfile(), log)
	received, _, _ := engine.Simulate(ctx, enc.Set, channel.FullChain("None", "None", "None"), log)
	res, _ := engine.Decode(ctx, received, alphabet.Natural, codec.Fountain, log)

	fmt.Printf("%s %.1f %.1f\n", res.Payload, res.RecoveryRate, res.BaseErrorRate)
	// Output:
	// HI 1.0 0.0
}
