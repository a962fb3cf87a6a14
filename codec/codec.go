package codec

import (
	"context"
	"fmt"
	"strings"

	"github.com/mbiostore/mbio/sequence"
)

// Kind enumerates the codec strategies.
type Kind int

const (
	// Fountain is the droplet-based erasure codec.
	Fountain Kind = iota + 1
	// ConstraintDirect is the single-copy rotating-table codec.
	ConstraintDirect
	// Hybrid is ConstraintDirect with per-segment checksums.
	Hybrid
	// Trellis is the convolutional codec with edit-distance decoding.
	Trellis
	// Prefix6 is the 6-ary Huffman codec.
	Prefix6
	// Prefix8 is the 8-ary Huffman codec.
	Prefix8
)

// Kinds lists every codec kind in declaration order.
var Kinds = []Kind{Fountain, ConstraintDirect, Hybrid, Trellis, Prefix6, Prefix8}

var kindNames = map[Kind]string{
	Fountain:         "Fountain",
	ConstraintDirect: "ConstraintDirect",
	Hybrid:           "Hybrid",
	Trellis:          "Trellis",
	Prefix6:          "Prefix6",
	Prefix8:          "Prefix8",
}

// kindLabels are the method names shown by the desktop tool.
var kindLabels = map[string]Kind{
	"dna fountain": Fountain,
	"yyc":          ConstraintDirect,
	"hybridcode":   Hybrid,
	"hedges":       Trellis,
	"6-huffman":    Prefix6,
	"8-huffman":    Prefix8,
}

// String returns the canonical name.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind resolves a canonical name or presentation label, ignoring case.
func ParseKind(name string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if strings.ToLower(n) == key {
			return k, nil
		}
	}
	if k, ok := kindLabels[key]; ok {
		return k, nil
	}
	return 0, Configf("unknown method %q", name)
}

// Codec is the strategy every encoding method implements.
type Codec interface {
	Kind() Kind
	Encode(ctx context.Context, payload []byte) (*EncodeResult, error)
	Decode(ctx context.Context, set sequence.Set) (*DecodeResult, error)
}

// UnitFailure records one droplet, segment or sequence that could not be
// encoded or decoded.
type UnitFailure struct {
	// Unit is the emitting unit on encode and the input sequence position on
	// decode.
	Unit int
	ID   string
	Err  error
}

// EncodeResult carries the accepted sequences and any per-unit failures.
type EncodeResult struct {
	Set      sequence.Set
	Failures []UnitFailure
}

// DecodeResult carries the (possibly partial) payload and decode accounting.
type DecodeResult struct {
	Payload []byte

	// RecoveredBytes counts payload bytes that were reconstructed, including
	// bytes outside the contiguous Payload prefix.
	RecoveredBytes int

	// TotalBytes is the payload length recovered from embedded metadata, or
	// -1 when unknown.
	TotalBytes int

	// Verified is true when the payload length and integrity were confirmed
	// by embedded length fields and checksums.
	Verified bool

	Failures []UnitFailure

	// SymbolErrors estimates erroneous observed symbols; SymbolsObserved is
	// the number of symbols read.
	SymbolErrors    int
	SymbolsObserved int

	// Err summarizes unit failures that left the payload incomplete.
	Err error
}

// Fail appends a decode failure for input sequence i.
func (r *DecodeResult) Fail(i int, id string, err error) {
	r.Failures = append(r.Failures, UnitFailure{Unit: i, ID: id, Err: err})
}
