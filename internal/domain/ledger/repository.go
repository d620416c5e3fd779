package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// lockAccount reads the materialized balance under a row lock. Concurrent
// ledger operations on the same account serialize here; operations on
// different accounts lock different rows and proceed in parallel.
func (r *Repository) lockAccount(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID) (int64, error) {
	var balance int64
	err := tx.GetContext(ctx, &balance, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	return balance, err
}

func (r *Repository) updateBalance(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, balance int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = $1, updated_at = now() WHERE id = $2`, balance, accountID)
	return err
}

func (r *Repository) insertEntry(ctx context.Context, tx *sqlx.Tx, entry *Entry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, account_id, type, amount, balance_after, reference_type, reference_id, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		entry.ID,
		entry.AccountID,
		entry.Type,
		entry.Amount,
		entry.BalanceAfter,
		entry.ReferenceType,
		entry.ReferenceID,
		entry.Description,
		entry.CreatedBy,
		entry.CreatedAt,
	)
	return err
}

// Apply atomically applies a signed balance change to an account and records
// the entry. The read of the current balance, the non-negative check, the
// balance write and the entry insert are one transaction; the written entry
// carries the positive magnitude and the post-change snapshot.
func (r *Repository) Apply(ctx context.Context, accountID uuid.UUID, delta int64, entryType EntryType, ref *Reference, description string, actorID uuid.UUID) (*Entry, error) {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	balance, err := r.lockAccount(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	nextBalance := balance + delta
	if nextBalance < 0 {
		return nil, ErrInsufficientBalance
	}

	if err := r.updateBalance(ctx, tx, accountID, nextBalance); err != nil {
		return nil, err
	}

	amount := delta
	if amount < 0 {
		amount = -amount
	}

	entry := &Entry{
		ID:           uuid.New(),
		AccountID:    accountID,
		Type:         entryType,
		Amount:       amount,
		BalanceAfter: nextBalance,
		Description:  description,
		CreatedBy:    actorID,
		CreatedAt:    time.Now(),
	}
	if ref != nil {
		entry.ReferenceType = &ref.Type
		entry.ReferenceID = uuid.NullUUID{UUID: ref.ID, Valid: true}
	}

	if err := r.insertEntry(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetBalance reads the materialized balance
func (r *Repository) GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var balance int64
	err := r.db.GetContext(ctx, &balance, `SELECT balance FROM accounts WHERE id = $1`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	return balance, err
}

// ListByAccount returns entries for an account, newest first
func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Entry, error) {
	entries := []*Entry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	return entries, err
}

// GetByReference returns the entry recorded for a reference, if any.
// Callers that must be idempotent check here before awarding again.
func (r *Repository) GetByReference(ctx context.Context, accountID uuid.UUID, entryType EntryType, refType string, refID uuid.UUID) (*Entry, error) {
	var entry Entry
	err := r.db.GetContext(ctx, &entry, `
		SELECT * FROM ledger_entries
		WHERE account_id = $1 AND type = $2 AND reference_type = $3 AND reference_id = $4
		LIMIT 1
	`, accountID, entryType, refType, refID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
