package gramdict

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports an invalid size budget or mismatched inputs.
	ErrConfiguration = errors.New("gramdict: configuration error")
	// ErrOutOfRange reports an index outside [0, size).
	ErrOutOfRange = errors.New("gramdict: index out of range")
	// ErrUncoverableSequence reports a sequence that no combination of
	// dictionary grams can reconstruct.
	ErrUncoverableSequence = errors.New("gramdict: uncoverable sequence")
	// ErrNotFitted is returned by StaticApplier.Parse before Fit.
	ErrNotFitted = errors.New("gramdict: applier not fitted")
	// ErrNotUpdated is returned by IterativeApplier.Parse before Update.
	ErrNotUpdated = errors.New("gramdict: applier not updated")
	// ErrFrozen is returned by Accept on a frozen, non-streaming builder.
	ErrFrozen = errors.New("gramdict: builder is frozen")
	// ErrMalformedSnapshot reports an undecodable snapshot representation.
	ErrMalformedSnapshot = errors.New("gramdict: malformed snapshot")
)

// ErrSymbolBudget is returned by Accept when the distinct symbols would no
// longer fit the dictionary budget as singletons.
var ErrSymbolBudget = fmt.Errorf("%w: distinct symbols exceed dictionary budget",
	ErrConfiguration)
