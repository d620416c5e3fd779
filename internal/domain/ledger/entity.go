package ledger

import (
	"time"

	"github.com/google/uuid"
)

// EntryType defines supported ledger entry types. The sign of a balance
// change is implied by the type: earn_* and refund credit the account,
// spend_* debits it. Adjustments carry an explicit direction chosen by
// the caller (credit goes through Award, debit through Spend).
type EntryType string

const (
	EntryTypeEarnTask     EntryType = "earn_task"
	EntryTypeEarnEvent    EntryType = "earn_event"
	EntryTypeEarnReferral EntryType = "earn_referral"
	EntryTypeSpendOrder   EntryType = "spend_order"
	EntryTypeRefund       EntryType = "refund"
	EntryTypeAdjustment   EntryType = "adjustment"
)

// Reference links a ledger entry to the entity that caused it
type Reference struct {
	Type string
	ID   uuid.UUID
}

// Entry is an immutable record of one balance change. Entries are never
// updated or deleted; corrections are expressed as new refund entries.
type Entry struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	AccountID     uuid.UUID     `db:"account_id" json:"account_id"`
	Type          EntryType     `db:"type" json:"type"`
	Amount        int64         `db:"amount" json:"amount"`
	BalanceAfter  int64         `db:"balance_after" json:"balance_after"`
	ReferenceType *string       `db:"reference_type" json:"reference_type,omitempty"`
	ReferenceID   uuid.NullUUID `db:"reference_id" json:"reference_id,omitempty"`
	Description   string        `db:"description" json:"description"`
	CreatedBy     uuid.UUID     `db:"created_by" json:"created_by"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}
