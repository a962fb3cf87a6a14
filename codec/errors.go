package codec

import (
	"errors"
	"fmt"

	"github.com/mbiostore/mbio/constraint"
)

// Sentinel errors of the failure taxonomy. Typed errors below unwrap to them.
var (
	// ErrConstraintUnsatisfiable is returned when no permitted mapping was
	// found within the retry or rotation budget.
	ErrConstraintUnsatisfiable = errors.New("codec: constraint unsatisfiable")

	// ErrInsufficientRedundancy is returned when decode cannot complete from
	// the surviving sequences.
	ErrInsufficientRedundancy = errors.New("codec: insufficient redundancy")

	// ErrChecksumMismatch marks a unit whose embedded checksum did not verify.
	ErrChecksumMismatch = errors.New("codec: checksum mismatch")

	// ErrDesynchronization marks a sequence whose decoding lost alignment.
	ErrDesynchronization = errors.New("codec: desynchronization")

	// ErrConfiguration marks unknown names and invalid parameters.
	ErrConfiguration = errors.New("codec: configuration error")

	// ErrCapacity marks a payload larger than a length or index field of the
	// codec can address.
	ErrCapacity = errors.New("codec: payload exceeds capacity")
)

// Configf wraps a formatted message with ErrConfiguration.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// ConstraintError reports a unit that exhausted its attempts.
type ConstraintError struct {
	Unit      int
	Attempts  int
	Violation constraint.Violation
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("codec: unit %d unsatisfiable after %d attempts (last violation: %s)",
		e.Unit, e.Attempts, e.Violation)
}

func (e *ConstraintError) Unwrap() error { return ErrConstraintUnsatisfiable }

// RedundancyError lists the source blocks or segments that stayed unresolved.
type RedundancyError struct {
	Unresolved []int
	// Total is the number of blocks expected, or 0 when unknown.
	Total int
}

func (e *RedundancyError) Error() string {
	if e.Total == 0 {
		return "codec: insufficient redundancy: no decodable units"
	}
	return fmt.Sprintf("codec: insufficient redundancy: %d of %d blocks unresolved %v",
		len(e.Unresolved), e.Total, preview(e.Unresolved))
}

func (e *RedundancyError) Unwrap() error { return ErrInsufficientRedundancy }

// ChecksumError identifies the input sequence whose checksum failed.
type ChecksumError struct {
	Sequence int
	Reason   string
}

func (e *ChecksumError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("codec: sequence %d: checksum mismatch (%s)", e.Sequence, e.Reason)
	}
	return fmt.Sprintf("codec: sequence %d: checksum mismatch", e.Sequence)
}

func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// DesyncError gives the symbol position where decoding of a sequence diverged.
type DesyncError struct {
	Sequence int
	Position int
}

func (e *DesyncError) Error() string {
	return fmt.Sprintf("codec: sequence %d desynchronized at symbol %d", e.Sequence, e.Position)
}

func (e *DesyncError) Unwrap() error { return ErrDesynchronization }

// preview truncates long index lists in messages.
func preview(idx []int) []int {
	if len(idx) > 8 {
		return idx[:8]
	}
	return idx
}
