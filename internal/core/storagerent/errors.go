package storagerent

import "errors"

var (
	// ErrInvalidArgument is returned by the rent arithmetic for negative inputs.
	ErrInvalidArgument = errors.New("invalid storage rent argument")

	// ErrEmptyAccessSet is returned when pay is called for a transaction that
	// touched no node at all. The executor must never do that.
	ErrEmptyAccessSet = errors.New("there should be rented nodes or rollback nodes")

	// ErrOutOfGas is returned when the remaining gas cannot cover the rent.
	// It is the only error of this package that a transaction may legitimately hit.
	ErrOutOfGas = errors.New("not enough gas remaining to pay storage rent")

	// ErrPayNotYetCalled is returned by the accessors of a session that has not paid.
	ErrPayNotYetCalled = errors.New("should pay rent before querying paid rent")

	// ErrAlreadyPaid is returned when pay is called twice on one session.
	ErrAlreadyPaid = errors.New("storage rent already paid for this session")

	// ErrRentOverflow is returned when rent arithmetic would overflow.
	ErrRentOverflow = errors.New("storage rent overflow")
)

// IsEngineFault reports whether err signals a bug in the caller rather than a
// transaction outcome. Everything except running out of gas is a fault.
func IsEngineFault(err error) bool {
	return err != nil && !errors.Is(err, ErrOutOfGas)
}
