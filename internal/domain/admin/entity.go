package admin

// DashboardStats aggregates counters for the admin dashboard
type DashboardStats struct {
	Members struct {
		Total       int `json:"total" db:"-"`
		Active      int `json:"active" db:"-"`
		Leaders     int `json:"leaders" db:"-"`
		NewToday    int `json:"new_today" db:"-"`
		WithPatrons int `json:"with_patrons" db:"-"`
	} `json:"members"`
	Tasks struct {
		Open          int `json:"open" db:"-"`
		InProgress    int `json:"in_progress" db:"-"`
		PendingReview int `json:"pending_review" db:"-"`
		Completed     int `json:"completed" db:"-"`
	} `json:"tasks"`
	Points struct {
		TotalBalance int64 `json:"total_balance" db:"-"`
		AwardedToday int64 `json:"awarded_today" db:"-"`
		SpentToday   int64 `json:"spent_today" db:"-"`
	} `json:"points"`
}
