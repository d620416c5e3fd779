package task

// CreateTaskRequest represents task creation data
type CreateTaskRequest struct {
	Title         string `json:"title" validate:"required,min=3,max=200"`
	Description   string `json:"description" validate:"omitempty,max=5000"`
	Points        int64  `json:"points" validate:"required,gt=0"`
	RequiresProof bool   `json:"requires_proof"`
}

// SubmitRequest represents a task submission
type SubmitRequest struct {
	Proof string `json:"proof" validate:"omitempty,max=5000"`
}

// ReviewRequest represents a review verdict on a submission
type ReviewRequest struct {
	Decision string `json:"decision" validate:"required,decision"`
	Feedback string `json:"feedback" validate:"omitempty,max=2000"`
}
