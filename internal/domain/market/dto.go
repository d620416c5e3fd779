package market

// CreateItemRequest represents item creation data
type CreateItemRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	Price       int64  `json:"price" validate:"required,gt=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
}

// UpdateItemRequest represents item update data
type UpdateItemRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Price       *int64  `json:"price" validate:"omitempty,gt=0"`
	Stock       *int    `json:"stock" validate:"omitempty,gte=0"`
	IsActive    *bool   `json:"is_active"`
}
