package interfaces

import (
	"context"

	"ghost-backend/internal/types"
)

// ProofVerifier is the boundary to the zero-knowledge proof system.
// The coordinator never inspects proof internals: a true result means
// "the prover knows a secret consistent with some ledger member whose
// derived nullifier matches", nothing more. Implementations must
// serialize the public inputs in exactly the field order of the types
// structs — the ordering is contractual with the circuit.
type ProofVerifier interface {
	VerifyRedemption(ctx context.Context, proof []byte, inputs types.RedemptionInputs) (bool, error)
	VerifyPartialRedemption(ctx context.Context, proof []byte, inputs types.PartialRedemptionInputs) (bool, error)
}
