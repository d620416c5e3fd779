package market

import "errors"

var (
	ErrItemNotFound        = errors.New("item not found")
	ErrItemUnavailable     = errors.New("item is not available")
	ErrOutOfStock          = errors.New("item is out of stock")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotCancellable = errors.New("order cannot be cancelled")
	ErrNotOrderOwner       = errors.New("order belongs to another member")
	ErrForbidden           = errors.New("not allowed to manage the market")
)
