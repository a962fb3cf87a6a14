package fountain_test

import (
	"context"
	"testing"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/constraint"
)

func BenchmarkEncode4KiB(b *testing.B) {
	c, _ := newCodec(b, alphabet.Natural, constraint.DefaultProfile())
	payload := randomPayload(4096, 1)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Encode(context.Background(), payload); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecode4KiB(b *testing.B) {
	c, _ := newCodec(b, alphabet.Natural, constraint.DefaultProfile())
	enc, err := c.Encode(context.Background(), randomPayload(4096, 1))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Decode(context.Background(), enc.Set); err != nil {
			b.Fatal(err)
		}
	}
}
