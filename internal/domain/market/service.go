package market

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/civio/civio-api/internal/domain/authz"
	"github.com/civio/civio-api/internal/domain/ledger"
	"github.com/civio/civio-api/internal/domain/notification"
)

// PointsLedger is the ledger surface purchases drive
type PointsLedger interface {
	Spend(ctx context.Context, accountID uuid.UUID, amount int64, entryType ledger.EntryType, ref *ledger.Reference, description string, actorID uuid.UUID) (*ledger.Entry, error)
	Refund(ctx context.Context, accountID uuid.UUID, amount int64, ref *ledger.Reference, description string, actorID uuid.UUID) (*ledger.Entry, error)
	HasReference(ctx context.Context, accountID uuid.UUID, entryType ledger.EntryType, refType string, refID uuid.UUID) (bool, error)
}

// AuditRecorder appends audit entries (best-effort)
type AuditRecorder interface {
	Record(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, oldData, newData, metadata interface{})
}

// Notifier enqueues member notifications (fire-and-forget)
type Notifier interface {
	Enqueue(ctx context.Context, recipientID uuid.UUID, kind notification.Kind, title, message string)
}

// Service handles marketplace business logic
type Service struct {
	repo     Repository
	ledger   PointsLedger
	auditLog AuditRecorder
	notifier Notifier
}

// NewService creates market service
func NewService(repo Repository, pointsLedger PointsLedger, auditLog AuditRecorder, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		ledger:   pointsLedger,
		auditLog: auditLog,
		notifier: notifier,
	}
}

// CreateItem adds a new item to the marketplace. Admin only.
func (s *Service) CreateItem(ctx context.Context, actor authz.Actor, req *CreateItemRequest) (*Item, error) {
	if !actor.Role.IsAdmin() {
		return nil, ErrForbidden
	}

	now := time.Now()
	item := &Item{
		ID:        uuid.New(),
		Name:      req.Name,
		Price:     req.Price,
		Stock:     req.Stock,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Description != "" {
		item.Description = sql.NullString{String: req.Description, Valid: true}
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	s.auditLog.Record(ctx, actor.ID, "market.item_created", "market_item", item.ID, nil, item, nil)
	return item, nil
}

// UpdateItem edits an item. Admin only.
func (s *Service) UpdateItem(ctx context.Context, actor authz.Actor, id uuid.UUID, req *UpdateItemRequest) (*Item, error) {
	if !actor.Role.IsAdmin() {
		return nil, ErrForbidden
	}

	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	before := *item
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = sql.NullString{String: *req.Description, Valid: *req.Description != ""}
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Stock != nil {
		item.Stock = *req.Stock
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	item.UpdatedAt = time.Now()

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	s.auditLog.Record(ctx, actor.ID, "market.item_updated", "market_item", item.ID, before, item, nil)
	return item, nil
}

// GetItem returns one item
func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.repo.GetItem(ctx, id)
}

// ListItems returns marketplace items. Non-admins see active items only.
func (s *Service) ListItems(ctx context.Context, actor authz.Actor, limit, offset int) ([]*Item, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListItems(ctx, !actor.Role.IsAdmin(), limit, offset)
}

// Purchase buys one unit of an item with points. Stock is reserved first;
// if the spend fails the unit goes back.
func (s *Service) Purchase(ctx context.Context, accountID uuid.UUID, itemID uuid.UUID) (*Order, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive {
		return nil, ErrItemUnavailable
	}
	if item.Stock <= 0 {
		return nil, ErrOutOfStock
	}

	reserved, err := s.repo.ReserveStock(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !reserved {
		return nil, ErrOutOfStock
	}

	orderID := uuid.New()
	ref := &ledger.Reference{Type: "order", ID: orderID}
	if _, err := s.ledger.Spend(ctx, accountID, item.Price, ledger.EntryTypeSpendOrder, ref,
		fmt.Sprintf("Purchase: %s", item.Name), accountID); err != nil {
		if restoreErr := s.repo.RestoreStock(ctx, itemID); restoreErr != nil {
			log.Error().
				Err(restoreErr).
				Str("marker", "reconcile").
				Str("item_id", itemID.String()).
				Msg("failed to restore stock after rejected spend")
		}
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return nil, ledger.ErrInsufficientBalance
		}
		return nil, err
	}

	now := time.Now()
	order := &Order{
		ID:        orderID,
		ItemID:    itemID,
		AccountID: accountID,
		Price:     item.Price,
		Status:    OrderPlaced,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		// Points were taken but no order exists. Pay them straight back
		// rather than leaving the member short.
		if _, refundErr := s.ledger.Refund(ctx, accountID, item.Price, ref,
			fmt.Sprintf("Order creation failed: %s", item.Name), accountID); refundErr != nil {
			log.Error().
				Err(refundErr).
				Str("marker", "reconcile").
				Str("order_id", orderID.String()).
				Str("account_id", accountID.String()).
				Int64("points", item.Price).
				Msg("spend committed but order insert and refund both failed")
		}
		if restoreErr := s.repo.RestoreStock(ctx, itemID); restoreErr != nil {
			log.Error().
				Err(restoreErr).
				Str("marker", "reconcile").
				Str("item_id", itemID.String()).
				Msg("failed to restore stock after failed order insert")
		}
		return nil, err
	}

	s.auditLog.Record(ctx, accountID, "market.order_placed", "market_order", orderID, nil, order,
		map[string]interface{}{"item_id": itemID.String(), "price": item.Price})
	s.notifier.Enqueue(ctx, accountID, notification.KindOrderPlaced,
		"Order placed",
		fmt.Sprintf("You bought %q for %d points", item.Name, item.Price))

	return order, nil
}

// CancelOrder cancels a placed order and refunds its points. The refund is
// keyed to the order reference, so a repeated cancel never pays twice.
func (s *Service) CancelOrder(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (*Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.AccountID != actor.ID && !actor.Role.IsAdmin() {
		return nil, ErrNotOrderOwner
	}

	cancelled, err := s.repo.CancelOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !cancelled {
		return nil, ErrOrderNotCancellable
	}

	if err := s.repo.RestoreStock(ctx, order.ItemID); err != nil {
		log.Error().
			Err(err).
			Str("marker", "reconcile").
			Str("item_id", order.ItemID.String()).
			Msg("failed to restore stock for cancelled order")
	}

	ref := &ledger.Reference{Type: "order", ID: orderID}
	refunded, err := s.ledger.HasReference(ctx, order.AccountID, ledger.EntryTypeRefund, ref.Type, ref.ID)
	if err != nil {
		return nil, err
	}
	if !refunded {
		if _, err := s.ledger.Refund(ctx, order.AccountID, order.Price, ref,
			fmt.Sprintf("Order cancelled: %s", orderID), actor.ID); err != nil {
			log.Error().
				Err(err).
				Str("marker", "reconcile").
				Str("order_id", orderID.String()).
				Str("account_id", order.AccountID.String()).
				Int64("points", order.Price).
				Msg("order cancelled but refund failed")
			return nil, fmt.Errorf("order cancelled but refund failed: %w", err)
		}
	}

	s.auditLog.Record(ctx, actor.ID, "market.order_cancelled", "market_order", orderID,
		map[string]string{"status": string(OrderPlaced)},
		map[string]string{"status": string(OrderCancelled)},
		nil)

	return s.repo.GetOrder(ctx, orderID)
}

// MyOrders lists the caller's orders
func (s *Service) MyOrders(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListOrdersByAccount(ctx, accountID, limit, offset)
}
