// Package events defines the protocol event payloads and the publisher
// that fans them out to NATS and to websocket subscribers. These are
// the "public notification" side effects of ledger and vault
// operations; wallets replay them to keep a local view of the tree.
package events

import "time"

// Event type names; also the last token of the NATS subject.
const (
	TypeCommitmentInserted = "CommitmentInserted"
	TypeRootUpdated        = "RootUpdated"
	TypeNullifierSpent     = "NullifierSpent"
	TypeGhosted            = "Ghosted"
	TypeRedeemed           = "Redeemed"
)

// CommitmentInsertedEvent announces {commitment, leafIndex}.
type CommitmentInsertedEvent struct {
	Commitment string    `json:"commitment"`
	LeafIndex  uint64    `json:"leaf_index"`
	AssetID    string    `json:"asset_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// RootUpdatedEvent announces an accepted root submission.
type RootUpdatedEvent struct {
	OldRoot   string    `json:"old_root"`
	NewRoot   string    `json:"new_root"`
	LeafCount uint64    `json:"leaf_count"`
	Timestamp time.Time `json:"timestamp"`
}

// NullifierSpentEvent announces a marked nullifier. Nothing else: the
// payload must not link the nullifier to any deposit.
type NullifierSpentEvent struct {
	Nullifier string    `json:"nullifier"`
	Timestamp time.Time `json:"timestamp"`
}

// GhostedEvent announces a ghost operation. Ghosting is deliberately
// public; privacy derives from the unlinkability of the redemption.
type GhostedEvent struct {
	Caller     string    `json:"caller"`
	AssetID    string    `json:"asset_id"`
	Amount     string    `json:"amount"`
	Commitment string    `json:"commitment"`
	LeafIndex  uint64    `json:"leaf_index"`
	Timestamp  time.Time `json:"timestamp"`
}

// RedeemedEvent announces a redemption: submitter and recipient only,
// never which deposit it corresponds to.
type RedeemedEvent struct {
	Kind      string    `json:"kind"` // redeem | redeem_partial
	Caller    string    `json:"caller"`
	Recipient string    `json:"recipient"`
	AssetID   string    `json:"asset_id"`
	Amount    string    `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}
