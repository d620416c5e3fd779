package market

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Item is a reward members can buy with points
type Item struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description sql.NullString `db:"description" json:"description,omitempty"`
	Price       int64          `db:"price" json:"price"`
	Stock       int            `db:"stock" json:"stock"`
	IsActive    bool           `db:"is_active" json:"is_active"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// OrderStatus represents order status
type OrderStatus string

const (
	OrderPlaced    OrderStatus = "placed"
	OrderCancelled OrderStatus = "cancelled"
)

// Order records one purchase. Price is captured at purchase time so later
// item repricing never changes what a refund pays back.
type Order struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	ItemID    uuid.UUID   `db:"item_id" json:"item_id"`
	AccountID uuid.UUID   `db:"account_id" json:"account_id"`
	Price     int64       `db:"price" json:"price"`
	Status    OrderStatus `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}
