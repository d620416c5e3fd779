package member

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines account data access
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates account repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (id, email, password_hash, display_name, role, balance, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.DisplayName,
		account.Role,
		account.Balance,
		account.IsActive,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	var account Account
	err := r.db.GetContext(ctx, &account, `SELECT * FROM accounts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	var account Account
	err := r.db.GetContext(ctx, &account, `SELECT * FROM accounts WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) UpdateRole(ctx context.Context, id uuid.UUID, role Role) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET role = $1, updated_at = now() WHERE id = $2`, role, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM accounts WHERE is_active`)
	return count, err
}
