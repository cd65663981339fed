package cfg

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvableTarget marks a branch whose operand is absolute or
	// indirect. Recovered: the edge is dropped and a Diagnostic recorded.
	ErrUnresolvableTarget = errors.New("cfg: branch target not resolvable")
	// ErrOutOfRange marks a branch target outside the instruction stream.
	// Recovered like ErrUnresolvableTarget.
	ErrOutOfRange = errors.New("cfg: branch target outside text region")
	// ErrMalformedInput is a contract violation by the decoder. Fatal.
	ErrMalformedInput = errors.New("cfg: malformed input")
	// ErrAllocation is returned when internal tables would exceed Options.MaxBytes. Fatal.
	ErrAllocation = errors.New("cfg: allocation limit exceeded")
)

// InputError reports the instruction (or block) index that violated the
// input contract. It unwraps to ErrMalformedInput.
type InputError struct {
	Index  int
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%v: index %d: %s", ErrMalformedInput, e.Index, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrMalformedInput }

// Diagnostic is an advisory record of one dropped edge.
type Diagnostic struct {
	Index  int    // source instruction index
	Target string // raw target description (displacement or operand text)
	Offset int64  // computed byte offset; only meaningful for ErrOutOfRange
	Err    error  // ErrUnresolvableTarget or ErrOutOfRange
}

func (d Diagnostic) Error() string {
	if errors.Is(d.Err, ErrOutOfRange) {
		return fmt.Sprintf("instruction [%d] control flow jump %s to offset %d outside of text region, ignoring",
			d.Index, d.Target, d.Offset)
	}
	return fmt.Sprintf("instruction [%d] branching address type not handled (%s), ignoring", d.Index, d.Target)
}

func (d Diagnostic) Unwrap() error { return d.Err }
