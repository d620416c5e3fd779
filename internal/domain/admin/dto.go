package admin

// AdjustPointsRequest represents a manual balance adjustment
type AdjustPointsRequest struct {
	Amount int64  `json:"amount" validate:"required"`
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// ChangeRoleRequest represents a role change
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// ImpersonateResponse carries the issued token
type ImpersonateResponse struct {
	AccessToken string `json:"access_token"`
}
