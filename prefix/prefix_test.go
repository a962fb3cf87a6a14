package prefix_test

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/codec"
	"github.com/mbiostore/mbio/constraint"
	"github.com/mbiostore/mbio/prefix"
	"github.com/mbiostore/mbio/sequence"
)

var relaxed = constraint.Profile{GCMin: 25, GCMax: 75, HomopolymerMax: 4}

func newCodec(t testing.TB, f alphabet.Family, p constraint.Profile, k int, opts ...prefix.Option) (*prefix.Codec, *alphabet.Alphabet) {
	t.Helper()
	a, err := alphabet.New(f)
	require.NoError(t, err)
	c, err := prefix.New(a, p, k, opts...)
	require.NoError(t, err)
	return c, a
}

func randomPayload(n int, seed int64) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	return b
}

// TestPrefix_UniformCode verifies the equal-weight codes are complete enough,
// balanced and prefix-free.
func TestPrefix_UniformCode(t *testing.T) {
	cases := []struct {
		f      alphabet.Family
		k      int
		lo, hi int
		kind   codec.Kind
	}{
		{alphabet.M5C6A, 6, 3, 4, codec.Prefix6},
		{alphabet.PZBS, 8, 2, 3, codec.Prefix8},
	}
	for _, tc := range cases {
		c, _ := newCodec(t, tc.f, relaxed, tc.k)
		assert.Equal(t, tc.kind, c.Kind())
		code := c.UniformCode()
		lengths := code.Lengths()
		require.Len(t, lengths, 256)

		kraft := 0.0
		for b, l := range lengths {
			assert.GreaterOrEqual(t, l, tc.lo)
			assert.LessOrEqual(t, l, tc.hi)
			pow := 1.0
			for i := 0; i < l; i++ {
				pow *= float64(tc.k)
			}
			kraft += 1 / pow
			assert.Len(t, code.Word(b), l)
		}
		assert.LessOrEqual(t, kraft, 1+1e-9)

		for x := 0; x < 256; x++ {
			for y := 0; y < 256; y++ {
				if x == y {
					continue
				}
				wx, wy := code.Word(byte(x)), code.Word(byte(y))
				if len(wx) <= len(wy) {
					require.False(t, equalDigits(wx, wy[:len(wx)]), "%d prefixes %d", x, y)
				}
			}
		}
	}
}

func equalDigits(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestPrefix_RoundTrip verifies every arity and compatible family.
func TestPrefix_RoundTrip(t *testing.T) {
	cases := []struct {
		f alphabet.Family
		k int
	}{
		{alphabet.M5C6A, 6},
		{alphabet.PZBS, 6},
		{alphabet.PZBS, 8},
	}
	p := constraint.DefaultProfile()
	for _, tc := range cases {
		c, a := newCodec(t, tc.f, p, tc.k)
		for _, n := range []int{0, 1, 20, 21, 100} {
			payload := randomPayload(n, int64(n)+9)
			enc, err := c.Encode(context.Background(), payload)
			require.NoError(t, err)
			require.Empty(t, enc.Failures, "%s k=%d n=%d", tc.f, tc.k, n)
			for _, s := range enc.Set.Sequences {
				assert.Equal(t, constraint.None, constraint.Check(s.Symbols, a, p))
			}

			dec, err := c.Decode(context.Background(), enc.Set)
			require.NoError(t, err)
			require.NoError(t, dec.Err)
			assert.True(t, dec.Verified)
			assert.Equal(t, payload, append([]byte{}, dec.Payload...))
			assert.Equal(t, n, dec.TotalBytes)
		}
	}
}

// TestPrefix_SixSymbolFamilies verifies the 6-ary code keeps the GC-skewed
// families inside the default band once pads balance them, and that the
// index field widens past 36 sequences.
func TestPrefix_SixSymbolFamilies(t *testing.T) {
	p := constraint.DefaultProfile()
	for _, f := range []alphabet.Family{alphabet.PZ, alphabet.BS} {
		c, a := newCodec(t, f, p, 6)
		for _, n := range []int{1, 19, 300, 1000} {
			payload := randomPayload(n, int64(n)+int64(f))
			enc, err := c.Encode(context.Background(), payload)
			require.NoError(t, err)
			require.Empty(t, enc.Failures, "%s n=%d", f, n)
			for _, s := range enc.Set.Sequences {
				require.Equal(t, constraint.None, constraint.Check(s.Symbols, a, p), "%s %s", f, s.ID)
			}
			dec, err := c.Decode(context.Background(), enc.Set)
			require.NoError(t, err)
			require.NoError(t, dec.Err, "%s n=%d", f, n)
			assert.Equal(t, payload, append([]byte{}, dec.Payload...), "%s n=%d", f, n)
		}
	}
}

// TestPrefix_PaddedDesync verifies a damaged trailer on a padded sequence
// is reported as a desync rather than decoded.
func TestPrefix_PaddedDesync(t *testing.T) {
	c, _ := newCodec(t, alphabet.PZ, constraint.DefaultProfile(), 6)
	payload := randomPayload(30, 5)
	enc, err := c.Encode(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, 2, enc.Set.Len())

	set := enc.Set.Clone()
	set.Sequences[1].Symbols = set.Sequences[1].Symbols[:3]
	dec, err := c.Decode(context.Background(), set)
	require.NoError(t, err)
	require.Len(t, dec.Failures, 1)
	var de *codec.DesyncError
	require.ErrorAs(t, dec.Failures[0].Err, &de)
	assert.Equal(t, 1, de.Sequence)
	assert.LessOrEqual(t, de.Position, 3)
	assert.ErrorIs(t, dec.Err, codec.ErrInsufficientRedundancy)
}

// TestPrefix_PayloadTable verifies a shipped frequency table round-trips and
// shortens skewed payloads.
func TestPrefix_PayloadTable(t *testing.T) {
	payload := []byte(strings.Repeat("a", 400) + strings.Repeat("b", 60) + "c")
	uni, _ := newCodec(t, alphabet.PZBS, constraint.DefaultProfile(), 8)
	tab, _ := newCodec(t, alphabet.PZBS, constraint.DefaultProfile(), 8, prefix.WithTable(prefix.TablePayload))

	u, err := uni.Encode(context.Background(), payload)
	require.NoError(t, err)
	p, err := tab.Encode(context.Background(), payload)
	require.NoError(t, err)
	require.Empty(t, p.Failures)
	assert.Less(t, p.Set.TotalSymbols(), u.Set.TotalSymbols())

	dec, err := tab.Decode(context.Background(), p.Set)
	require.NoError(t, err)
	require.NoError(t, dec.Err)
	assert.Equal(t, payload, dec.Payload)

	// Without its table sequence the payload code cannot be rebuilt.
	dec, err = tab.Decode(context.Background(), sequence.NewSet(p.Set.Family, p.Set.Sequences[1:]))
	require.NoError(t, err)
	assert.ErrorIs(t, dec.Err, codec.ErrInsufficientRedundancy)
	assert.Empty(t, dec.Payload)
}

// TestPrefix_Desync verifies foreign letters, truncation and trailing
// digits are reported at the offending position.
func TestPrefix_Desync(t *testing.T) {
	c, a := newCodec(t, alphabet.PZBS, constraint.DefaultProfile(), 8)
	payload := randomPayload(60, 3) // 64 framed bytes -> 3 sequences
	enc, err := c.Encode(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, 3, enc.Set.Len())

	set := enc.Set.Clone()
	set.Sequences[0].Symbols[15] = 'X'
	s1 := set.Sequences[1].Symbols
	set.Sequences[1].Symbols = s1[:len(s1)-2]
	n2 := set.Sequences[2].Len()
	set.Sequences[2].Symbols = append(set.Sequences[2].Symbols, a.Letter(0))

	dec, err := c.Decode(context.Background(), set)
	require.NoError(t, err)
	require.Len(t, dec.Failures, 3)
	want := []int{15, len(s1) - 2, n2}
	for i, f := range dec.Failures {
		var de *codec.DesyncError
		require.ErrorAs(t, f.Err, &de)
		assert.Equal(t, i, de.Sequence)
		assert.Equal(t, want[i], de.Position, "sequence %d", i)
	}
	var re *codec.RedundancyError
	require.ErrorAs(t, dec.Err, &re)
	assert.Zero(t, re.Total)
	assert.Equal(t, -1, dec.TotalBytes)
}

// TestPrefix_MissingSequence verifies lost data sequences are listed.
func TestPrefix_MissingSequence(t *testing.T) {
	c, _ := newCodec(t, alphabet.M5C6A, constraint.DefaultProfile(), 6)
	payload := randomPayload(60, 4)
	enc, err := c.Encode(context.Background(), payload)
	require.NoError(t, err)

	seqs := []sequence.Sequence{enc.Set.Sequences[0], enc.Set.Sequences[2]}
	dec, err := c.Decode(context.Background(), sequence.NewSet(enc.Set.Family, seqs))
	require.NoError(t, err)
	var re *codec.RedundancyError
	require.ErrorAs(t, dec.Err, &re)
	assert.Equal(t, []int{1}, re.Unresolved)
	assert.Equal(t, 3, re.Total)
	assert.Equal(t, payload[:20], dec.Payload)
	assert.True(t, bytes.HasPrefix(payload, dec.Payload))
}

// TestPrefix_Configuration verifies arity, alphabet and option checks.
func TestPrefix_Configuration(t *testing.T) {
	nat, _ := alphabet.New(alphabet.Natural)
	pz, _ := alphabet.New(alphabet.PZ)
	p := constraint.DefaultProfile()

	_, err := prefix.New(nat, p, 6)
	assert.ErrorIs(t, err, codec.ErrConfiguration)
	_, err = prefix.New(pz, p, 8)
	assert.ErrorIs(t, err, codec.ErrConfiguration)
	_, err = prefix.New(pz, p, 5)
	assert.ErrorIs(t, err, codec.ErrConfiguration)
	_, err = prefix.New(pz, p, 6, prefix.WithBytesPerSequence(36))
	assert.ErrorIs(t, err, codec.ErrConfiguration)
	_, err = prefix.New(pz, p, 6, prefix.WithTable(prefix.Table(7)))
	assert.ErrorIs(t, err, codec.ErrConfiguration)

	tbl, err := prefix.ParseTable("payload")
	require.NoError(t, err)
	assert.Equal(t, prefix.TablePayload, tbl)
	_, err = prefix.ParseTable("adaptive")
	assert.ErrorIs(t, err, codec.ErrConfiguration)
}

// TestPrefix_Cancelled verifies cancellation aborts both directions.
func TestPrefix_Cancelled(t *testing.T) {
	c, _ := newCodec(t, alphabet.PZBS, constraint.DefaultProfile(), 8)
	enc, err := c.Encode(context.Background(), randomPayload(30, 1))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Encode(ctx, randomPayload(30, 1))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = c.Decode(ctx, enc.Set)
	assert.ErrorIs(t, err, context.Canceled)
}
