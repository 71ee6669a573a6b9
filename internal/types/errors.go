package types

import "errors"

// Protocol error taxonomy. Every state-mutating operation validates its
// preconditions up front and aborts with one of these before touching
// any state, so a non-nil error always means "no effect".
var (
	// ErrCapacityExceeded is returned by inserts once the ledger holds
	// Capacity commitments.
	ErrCapacityExceeded = errors.New("ledger capacity exceeded")

	// ErrUnauthorized is returned when the caller is neither the owner
	// nor allow-listed for the entry point.
	ErrUnauthorized = errors.New("caller not authorized")

	// ErrStaleState is returned by root submission when the submitted
	// leaf count does not match the current ledger length.
	ErrStaleState = errors.New("root computed for a different ledger state")

	// ErrDuplicateSubmission is returned when the submitted root equals
	// the currently active root.
	ErrDuplicateSubmission = errors.New("root already active")

	// ErrInvalidInput covers zero amounts, zero addresses, the reserved
	// zero nullifier, non-canonical field elements and malformed proofs.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadySpent is returned when a nullifier has been marked
	// before. This is the one terminal condition: a mark is never undone.
	ErrAlreadySpent = errors.New("nullifier already spent")

	// ErrUnknownRoot is returned when a redemption references a root
	// that was never validly submitted.
	ErrUnknownRoot = errors.New("unknown root")

	// ErrProofRejected is returned when the external verifier rejects
	// the proof.
	ErrProofRejected = errors.New("proof rejected")

	// ErrAmountInvariant is returned when a partial redemption asks for
	// more than the voucher's original amount.
	ErrAmountInvariant = errors.New("redeem amount exceeds original amount")

	// ErrInsufficientBalance is returned by ghost when the caller's
	// transferable balance does not cover the amount.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNotSupported marks operations the ledger deliberately refuses,
	// such as in-ledger Merkle proof verification.
	ErrNotSupported = errors.New("operation not supported")

	// ErrOutOfRange is returned by indexed reads past the ledger length.
	ErrOutOfRange = errors.New("index out of range")
)

// ErrorCode maps a protocol error to the machine-readable code used in
// HTTP responses and event payloads.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrCapacityExceeded):
		return "CAPACITY_EXCEEDED"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrStaleState):
		return "STALE_STATE"
	case errors.Is(err, ErrDuplicateSubmission):
		return "DUPLICATE_SUBMISSION"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, ErrAlreadySpent):
		return "ALREADY_SPENT"
	case errors.Is(err, ErrUnknownRoot):
		return "UNKNOWN_ROOT"
	case errors.Is(err, ErrProofRejected):
		return "PROOF_REJECTED"
	case errors.Is(err, ErrAmountInvariant):
		return "AMOUNT_INVARIANT_VIOLATED"
	case errors.Is(err, ErrInsufficientBalance):
		return "INSUFFICIENT_BALANCE"
	case errors.Is(err, ErrNotSupported):
		return "NOT_SUPPORTED"
	case errors.Is(err, ErrOutOfRange):
		return "OUT_OF_RANGE"
	default:
		return "INTERNAL_ERROR"
	}
}
