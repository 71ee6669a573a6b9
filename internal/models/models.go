// Package models defines the GORM schema for the durable journal of
// protocol state. The in-memory core is authoritative while serving;
// these tables exist to survive restarts and to serve audit queries.
package models

import "time"

// LedgerCommitment is one appended commitment. LeafIndex is assigned by
// insertion order and never changes; rows are never updated or deleted.
type LedgerCommitment struct {
	LeafIndex  uint64    `json:"leaf_index" gorm:"primaryKey;autoIncrement:false"`
	Commitment string    `json:"commitment" gorm:"type:varchar(66);not null;uniqueIndex:idx_ledger_commitment"`
	AssetID    string    `json:"asset_id" gorm:"type:varchar(66);index:idx_ledger_asset"`
	Origin     string    `json:"origin" gorm:"type:varchar(16);not null"` // ghost | change | insert
	CreatedAt  time.Time `json:"created_at"`
}

// LedgerRoot is one validly submitted root. Seq preserves submission
// order so the recency buffer rebuilds exactly at boot; the full table
// is the permanent known-root set.
type LedgerRoot struct {
	Seq       uint64    `json:"seq" gorm:"primaryKey;autoIncrement"`
	Root      string    `json:"root" gorm:"type:varchar(66);not null;index:idx_ledger_root"`
	LeafCount uint64    `json:"leaf_count" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// SpentNullifier is one marked nullifier. Deliberately the only
// columns: storing any link back to a commitment or amount would leak
// the deposit/redemption pairing.
type SpentNullifier struct {
	Nullifier string    `json:"nullifier" gorm:"type:varchar(66);primaryKey"`
	SpentAt   time.Time `json:"spent_at"`
}

// VaultBalance is the transferable balance of one principal for one
// asset. Balance is a 256-bit unsigned decimal string.
type VaultBalance struct {
	Principal string    `json:"principal" gorm:"type:varchar(42);primaryKey"`
	AssetID   string    `json:"asset_id" gorm:"type:varchar(66);primaryKey"`
	Balance   string    `json:"balance" gorm:"type:varchar(80);not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProtocolCounters is the single-row accounting table.
// TotalGhosted >= TotalRedeemed always.
type ProtocolCounters struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	TotalGhosted  string    `json:"total_ghosted" gorm:"type:varchar(80);not null"`
	TotalRedeemed string    `json:"total_redeemed" gorm:"type:varchar(80);not null"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Principal is one authorization grant: the owner, an inserter, a
// spender or the root submitter.
type Principal struct {
	Address   string    `json:"address" gorm:"type:varchar(42);primaryKey"`
	Role      string    `json:"role" gorm:"type:varchar(16);primaryKey"`
	CreatedAt time.Time `json:"created_at"`
}

// RedemptionEvent is the audit log of ghost/redeem operations. It only
// records what the operation itself already made public.
type RedemptionEvent struct {
	ID            string    `json:"id" gorm:"type:varchar(36);primaryKey"` // UUID
	Kind          string    `json:"kind" gorm:"type:varchar(20);not null;index:idx_event_kind"`
	Caller        string    `json:"caller" gorm:"type:varchar(42);not null;index:idx_event_caller"`
	Recipient     string    `json:"recipient" gorm:"type:varchar(42)"`
	AssetID       string    `json:"asset_id" gorm:"type:varchar(66)"`
	Amount        string    `json:"amount" gorm:"type:varchar(80);not null"`
	Nullifier     string    `json:"nullifier" gorm:"type:varchar(66)"`
	Commitment    string    `json:"commitment" gorm:"type:varchar(66)"`
	NewCommitment string    `json:"new_commitment" gorm:"type:varchar(66)"`
	LeafIndex     *uint64   `json:"leaf_index"`
	CreatedAt     time.Time `json:"created_at" gorm:"index:idx_event_created"`
}
