package admin

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Repository defines admin data access
type Repository interface {
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates admin repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	// Member stats; single-counter misses are tolerable on the dashboard
	r.db.GetContext(ctx, &stats.Members.Total, `SELECT COUNT(*) FROM accounts`)
	r.db.GetContext(ctx, &stats.Members.Active, `SELECT COUNT(*) FROM accounts WHERE is_active = TRUE`)
	r.db.GetContext(ctx, &stats.Members.Leaders, `SELECT COUNT(*) FROM accounts WHERE role IN ('group_leader', 'regional_leader')`)
	r.db.GetContext(ctx, &stats.Members.NewToday, `SELECT COUNT(*) FROM accounts WHERE created_at >= CURRENT_DATE`)
	r.db.GetContext(ctx, &stats.Members.WithPatrons, `SELECT COUNT(DISTINCT child_id) FROM referral_edges`)

	// Task stats
	r.db.GetContext(ctx, &stats.Tasks.Open, `SELECT COUNT(*) FROM tasks WHERE status = 'open'`)
	r.db.GetContext(ctx, &stats.Tasks.InProgress, `SELECT COUNT(*) FROM tasks WHERE status = 'in_progress'`)
	r.db.GetContext(ctx, &stats.Tasks.PendingReview, `SELECT COUNT(*) FROM tasks WHERE status = 'pending_review'`)
	r.db.GetContext(ctx, &stats.Tasks.Completed, `SELECT COUNT(*) FROM tasks WHERE status = 'completed'`)

	// Point stats
	r.db.GetContext(ctx, &stats.Points.TotalBalance, `SELECT COALESCE(SUM(balance), 0) FROM accounts`)
	r.db.GetContext(ctx, &stats.Points.AwardedToday, `
		SELECT COALESCE(SUM(amount), 0) FROM ledger_entries
		WHERE created_at >= CURRENT_DATE AND type IN ('earn_task', 'earn_event', 'earn_referral')`)
	r.db.GetContext(ctx, &stats.Points.SpentToday, `
		SELECT COALESCE(SUM(amount), 0) FROM ledger_entries
		WHERE created_at >= CURRENT_DATE AND type = 'spend_order'`)

	return stats, nil
}
