package audit

import (
	"context"

	"github.com/previmed/registro/internal/shared/types"
)

// Repository is the append-only audit log surface
type Repository interface {
	Initialize(ctx context.Context) error
	Append(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter ListFilter) ([]*Entry, int, error)
	VerifyChain(ctx context.Context, limit int, includeDetails bool) (*VerifyResult, error)
	Count(ctx context.Context) (int, error)
}

// VerifyResult reports the outcome of an integrity check over the chain
type VerifyResult struct {
	Valid          bool                `json:"valid"`
	Checked        int                 `json:"checked"`
	ContentValid   int                 `json:"content_valid"`
	ContentInvalid int                 `json:"content_invalid"`
	LinkageValid   int                 `json:"linkage_valid"`
	LinkageInvalid int                 `json:"linkage_invalid"`
	Violations     []string            `json:"violations,omitempty"`
	Entries        []VerifyEntryResult `json:"entries,omitempty"`
}

// VerifyEntryResult is the per-entry detail of a verification run
type VerifyEntryResult struct {
	ID           types.ID `json:"id"`
	Sequence     int64    `json:"sequence"`
	Hash         string   `json:"hash"`
	ComputedHash string   `json:"computed_hash"`
	PrevHash     string   `json:"prev_hash,omitempty"`
	Valid        bool     `json:"valid"`
	ContentValid bool     `json:"content_valid"`
	LinkageValid bool     `json:"linkage_valid"`
	Action       string   `json:"action"`
}
