package market

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/civio/civio-api/internal/domain/authz"
	"github.com/civio/civio-api/internal/domain/ledger"
	"github.com/civio/civio-api/internal/domain/member"
	"github.com/civio/civio-api/internal/domain/notification"
)

type fakeRepository struct {
	mu     sync.Mutex
	items  map[uuid.UUID]*Item
	orders map[uuid.UUID]*Order
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		items:  make(map[uuid.UUID]*Item),
		orders: make(map[uuid.UUID]*Order),
	}
}

func (f *fakeRepository) CreateItem(_ context.Context, item *Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeRepository) UpdateItem(_ context.Context, item *Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[item.ID]; !ok {
		return ErrItemNotFound
	}
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeRepository) GetItem(_ context.Context, id uuid.UUID) (*Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (f *fakeRepository) ListItems(_ context.Context, activeOnly bool, limit, offset int) ([]*Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Item
	for _, item := range f.items {
		if activeOnly && !item.IsActive {
			continue
		}
		cp := *item
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeRepository) ReserveStock(_ context.Context, itemID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemID]
	if !ok || !item.IsActive || item.Stock <= 0 {
		return false, nil
	}
	item.Stock--
	return true, nil
}

func (f *fakeRepository) RestoreStock(_ context.Context, itemID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item, ok := f.items[itemID]; ok {
		item.Stock++
	}
	return nil
}

func (f *fakeRepository) CreateOrder(_ context.Context, order *Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeRepository) GetOrder(_ context.Context, id uuid.UUID) (*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (f *fakeRepository) ListOrdersByAccount(_ context.Context, accountID uuid.UUID, limit, offset int) ([]*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Order
	for _, order := range f.orders {
		if order.AccountID != accountID {
			continue
		}
		cp := *order
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeRepository) CancelOrder(_ context.Context, orderID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok || order.Status != OrderPlaced {
		return false, nil
	}
	order.Status = OrderCancelled
	return true, nil
}

// fakeLedger keeps real balances so spends can fail on insufficient funds.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[uuid.UUID]int64
	spends   map[uuid.UUID]int64 // refID -> amount
	refunds  map[uuid.UUID]int64 // refID -> amount
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances: make(map[uuid.UUID]int64),
		spends:   make(map[uuid.UUID]int64),
		refunds:  make(map[uuid.UUID]int64),
	}
}

func (f *fakeLedger) Spend(_ context.Context, accountID uuid.UUID, amount int64, entryType ledger.EntryType, ref *ledger.Reference, _ string, _ uuid.UUID) (*ledger.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balances[accountID] < amount {
		return nil, ledger.ErrInsufficientBalance
	}
	f.balances[accountID] -= amount
	f.spends[ref.ID] = amount
	return &ledger.Entry{ID: uuid.New(), AccountID: accountID, Type: entryType, Amount: amount}, nil
}

func (f *fakeLedger) Refund(_ context.Context, accountID uuid.UUID, amount int64, ref *ledger.Reference, _ string, _ uuid.UUID) (*ledger.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[accountID] += amount
	f.refunds[ref.ID] += amount
	return &ledger.Entry{ID: uuid.New(), AccountID: accountID, Type: ledger.EntryTypeRefund, Amount: amount}, nil
}

func (f *fakeLedger) HasReference(_ context.Context, _ uuid.UUID, entryType ledger.EntryType, _ string, refID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entryType == ledger.EntryTypeRefund {
		_, ok := f.refunds[refID]
		return ok, nil
	}
	_, ok := f.spends[refID]
	return ok, nil
}

type noopAudit struct{}

func (noopAudit) Record(_ context.Context, _ uuid.UUID, _, _ string, _ uuid.UUID, _, _, _ interface{}) {
}

type noopNotifier struct{}

func (noopNotifier) Enqueue(_ context.Context, _ uuid.UUID, _ notification.Kind, _, _ string) {}

func seedItem(repo *fakeRepository, price int64, stock int) *Item {
	item := &Item{
		ID:        uuid.New(),
		Name:      "Organization t-shirt",
		Price:     price,
		Stock:     stock,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	_ = repo.CreateItem(context.Background(), item)
	return item
}

func TestPurchaseSpendsAndCreatesOrder(t *testing.T) {
	repo := newFakeRepository()
	lg := newFakeLedger()
	svc := NewService(repo, lg, noopAudit{}, noopNotifier{})

	item := seedItem(repo, 30, 5)
	buyer := uuid.New()
	lg.balances[buyer] = 100

	order, err := svc.Purchase(context.Background(), buyer, item.ID)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	if order.Price != 30 || order.Status != OrderPlaced {
		t.Errorf("unexpected order %+v", order)
	}
	if lg.balances[buyer] != 70 {
		t.Errorf("expected balance 70 after purchase, got %d", lg.balances[buyer])
	}
	if got, _ := repo.GetItem(context.Background(), item.ID); got.Stock != 4 {
		t.Errorf("expected stock 4, got %d", got.Stock)
	}
	if lg.spends[order.ID] != 30 {
		t.Errorf("spend should reference the order ID")
	}
}

func TestPurchaseInsufficientBalanceRestoresStock(t *testing.T) {
	repo := newFakeRepository()
	lg := newFakeLedger()
	svc := NewService(repo, lg, noopAudit{}, noopNotifier{})

	item := seedItem(repo, 100, 1)
	buyer := uuid.New()
	lg.balances[buyer] = 10

	if _, err := svc.Purchase(context.Background(), buyer, item.ID); !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if got, _ := repo.GetItem(context.Background(), item.ID); got.Stock != 1 {
		t.Errorf("stock should be restored after rejected spend, got %d", got.Stock)
	}
	if len(repo.orders) != 0 {
		t.Errorf("no order should exist after rejected spend")
	}
}

func TestPurchaseOutOfStock(t *testing.T) {
	repo := newFakeRepository()
	lg := newFakeLedger()
	svc := NewService(repo, lg, noopAudit{}, noopNotifier{})

	item := seedItem(repo, 10, 0)
	buyer := uuid.New()
	lg.balances[buyer] = 100

	if _, err := svc.Purchase(context.Background(), buyer, item.ID); !errors.Is(err, ErrOutOfStock) {
		t.Errorf("expected ErrOutOfStock, got %v", err)
	}
	if lg.balances[buyer] != 100 {
		t.Errorf("no points should be spent when out of stock")
	}
}

func TestCancelOrderRefundsOnce(t *testing.T) {
	repo := newFakeRepository()
	lg := newFakeLedger()
	svc := NewService(repo, lg, noopAudit{}, noopNotifier{})

	item := seedItem(repo, 40, 2)
	buyer := uuid.New()
	lg.balances[buyer] = 50
	actor := authz.Actor{ID: buyer, Role: member.RoleMember}

	order, err := svc.Purchase(context.Background(), buyer, item.ID)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if lg.balances[buyer] != 10 {
		t.Fatalf("expected balance 10 after purchase, got %d", lg.balances[buyer])
	}

	cancelled, err := svc.CancelOrder(context.Background(), actor, order.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != OrderCancelled {
		t.Errorf("expected cancelled status, got %s", cancelled.Status)
	}
	if lg.balances[buyer] != 50 {
		t.Errorf("expected full refund back to 50, got %d", lg.balances[buyer])
	}
	if got, _ := repo.GetItem(context.Background(), item.ID); got.Stock != 2 {
		t.Errorf("stock should be restored on cancel, got %d", got.Stock)
	}

	// Second cancel is a conflict and must not refund again.
	if _, err := svc.CancelOrder(context.Background(), actor, order.ID); !errors.Is(err, ErrOrderNotCancellable) {
		t.Fatalf("expected ErrOrderNotCancellable, got %v", err)
	}
	if lg.balances[buyer] != 50 {
		t.Errorf("repeat cancel must not double-refund, got %d", lg.balances[buyer])
	}
}

func TestCancelOrderOwnerOnly(t *testing.T) {
	repo := newFakeRepository()
	lg := newFakeLedger()
	svc := NewService(repo, lg, noopAudit{}, noopNotifier{})

	item := seedItem(repo, 10, 1)
	buyer := uuid.New()
	lg.balances[buyer] = 10

	order, err := svc.Purchase(context.Background(), buyer, item.ID)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	stranger := authz.Actor{ID: uuid.New(), Role: member.RoleMember}
	if _, err := svc.CancelOrder(context.Background(), stranger, order.ID); !errors.Is(err, ErrNotOrderOwner) {
		t.Errorf("expected ErrNotOrderOwner, got %v", err)
	}

	admin := authz.Actor{ID: uuid.New(), Role: member.RoleAdmin}
	if _, err := svc.CancelOrder(context.Background(), admin, order.ID); err != nil {
		t.Errorf("admin cancel should succeed: %v", err)
	}
}

func TestConcurrentPurchasesRespectStock(t *testing.T) {
	repo := newFakeRepository()
	lg := newFakeLedger()
	svc := NewService(repo, lg, noopAudit{}, noopNotifier{})

	item := seedItem(repo, 1, 3)

	const buyers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buyer := uuid.New()
			lg.mu.Lock()
			lg.balances[buyer] = 10
			lg.mu.Unlock()

			_, err := svc.Purchase(context.Background(), buyer, item.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrOutOfStock):
			default:
				t.Errorf("unexpected purchase error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 3 {
		t.Errorf("expected exactly 3 purchases for stock 3, got %d", succeeded)
	}
	if got, _ := repo.GetItem(context.Background(), item.ID); got.Stock != 0 {
		t.Errorf("expected stock 0, got %d", got.Stock)
	}
}
