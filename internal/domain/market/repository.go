package market

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines market data access
type Repository interface {
	CreateItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context, activeOnly bool, limit, offset int) ([]*Item, error)

	// ReserveStock decrements stock by one while it is positive and the
	// item is active. Returns false when nothing could be reserved.
	ReserveStock(ctx context.Context, itemID uuid.UUID) (bool, error)
	// RestoreStock puts one reserved unit back.
	RestoreStock(ctx context.Context, itemID uuid.UUID) error

	CreateOrder(ctx context.Context, order *Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrdersByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Order, error)

	// CancelOrder transitions placed -> cancelled.
	// Returns false when the order was not placed.
	CancelOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates market repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateItem(ctx context.Context, item *Item) error {
	query := `
		INSERT INTO market_items (id, name, description, price, stock, is_active, created_at, updated_at)
		VALUES (:id, :name, :description, :price, :stock, :is_active, :created_at, :updated_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, item)
	return err
}

func (r *repository) UpdateItem(ctx context.Context, item *Item) error {
	query := `
		UPDATE market_items
		SET name = :name, description = :description, price = :price,
		    stock = :stock, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *repository) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	var item Item
	err := r.db.GetContext(ctx, &item, `SELECT * FROM market_items WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItems(ctx context.Context, activeOnly bool, limit, offset int) ([]*Item, error) {
	items := []*Item{}
	query := `SELECT * FROM market_items`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &items, query, limit, offset); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ReserveStock(ctx context.Context, itemID uuid.UUID) (bool, error) {
	query := `
		UPDATE market_items
		SET stock = stock - 1, updated_at = NOW()
		WHERE id = $1 AND stock > 0 AND is_active = TRUE
	`
	result, err := r.db.ExecContext(ctx, query, itemID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *repository) RestoreStock(ctx context.Context, itemID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE market_items SET stock = stock + 1, updated_at = NOW() WHERE id = $1`, itemID)
	return err
}

func (r *repository) CreateOrder(ctx context.Context, order *Order) error {
	query := `
		INSERT INTO market_orders (id, item_id, account_id, price, status, created_at, updated_at)
		VALUES (:id, :item_id, :account_id, :price, :status, :created_at, :updated_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, order)
	return err
}

func (r *repository) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	var order Order
	err := r.db.GetContext(ctx, &order, `SELECT * FROM market_orders WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListOrdersByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Order, error) {
	orders := []*Order{}
	query := `
		SELECT * FROM market_orders
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &orders, query, accountID, limit, offset); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) CancelOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	query := `
		UPDATE market_orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`
	result, err := r.db.ExecContext(ctx, query, OrderCancelled, orderID, OrderPlaced)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}
