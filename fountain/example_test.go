package fountain_test

import (
	"context"
	"fmt"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/constraint"
	"github.com/mbiostore/mbio/fountain"
)

// ExampleCodec encodes a short message into droplets and decodes it back.
func ExampleCodec() {
	a, _ := alphabet.New(alphabet.Natural)
	c, err := fountain.New(a, constraint.DefaultProfile())
	if err != nil {
		fmt.Println(err)
		return
	}
	enc, _ := c.Encode(context.Background(), []byte("HI"))
	dec, _ := c.Decode(context.Background(), enc.Set)
	fmt.Println(string(dec.Payload), dec.Verified, dec.Err)
	// Output: HI true <nil>
}
