package task

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines task data access. State transitions are implemented as
// compare-and-swap updates guarded by the current status, so two racing
// transitions produce exactly one winner.
type Repository interface {
	Create(ctx context.Context, t *Task) error
	Update(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	List(ctx context.Context, status *Status, limit, offset int) ([]*Task, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Claim transitions open -> in_progress and sets the assignee.
	// Returns false when the task was not open.
	Claim(ctx context.Context, taskID, userID uuid.UUID) (bool, error)

	// SubmitForReview transitions in_progress -> pending_review and inserts
	// the pending submission in one transaction. Returns false when the task
	// was not in_progress.
	SubmitForReview(ctx context.Context, taskID uuid.UUID, sub *Submission) (bool, error)

	GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error)

	// DecideSubmission settles a pending submission and moves the task to its
	// post-review status in one transaction. Returns false when the
	// submission was not pending.
	DecideSubmission(ctx context.Context, submissionID uuid.UUID, decision SubmissionStatus, reviewerID uuid.UUID, feedback string, pointsAwarded int64, taskStatus Status) (bool, error)

	// Cancel transitions open/in_progress -> cancelled.
	// Returns false when the task was already terminal or under review.
	Cancel(ctx context.Context, taskID uuid.UUID) (bool, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates task repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, t *Task) error {
	query := `
		INSERT INTO tasks (id, title, description, points, status, requires_proof, assignee_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Title, t.Description, t.Points, t.Status, t.RequiresProof, t.AssigneeID, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *repository) Update(ctx context.Context, t *Task) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = $1, description = $2, points = $3, requires_proof = $4, updated_at = now()
		WHERE id = $5
	`, t.Title, t.Description, t.Points, t.RequiresProof, t.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	var t Task
	err := r.db.GetContext(ctx, &t, `SELECT * FROM tasks WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) List(ctx context.Context, status *Status, limit, offset int) ([]*Task, error) {
	tasks := []*Task{}
	if status != nil {
		err := r.db.SelectContext(ctx, &tasks, `
			SELECT * FROM tasks WHERE status = $1
			ORDER BY created_at DESC LIMIT $2 OFFSET $3
		`, *status, limit, offset)
		return tasks, err
	}
	err := r.db.SelectContext(ctx, &tasks, `
		SELECT * FROM tasks ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	return tasks, err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *repository) Claim(ctx context.Context, taskID, userID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = $1, assignee_id = $2, updated_at = now()
		WHERE id = $3 AND status = $4
	`, StatusInProgress, userID, taskID, StatusOpen)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *repository) SubmitForReview(ctx context.Context, taskID uuid.UUID, sub *Submission) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE tasks SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3 AND assignee_id = $4
	`, StatusPendingReview, taskID, StatusInProgress, sub.SubmittedBy)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO task_submissions (id, task_id, submitted_by, status, proof, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, sub.ID, sub.TaskID, sub.SubmittedBy, sub.Status, sub.Proof, sub.CreatedAt); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

func (r *repository) GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error) {
	var sub Submission
	err := r.db.GetContext(ctx, &sub, `SELECT * FROM task_submissions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repository) DecideSubmission(ctx context.Context, submissionID uuid.UUID, decision SubmissionStatus, reviewerID uuid.UUID, feedback string, pointsAwarded int64, taskStatus Status) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var points sql.NullInt64
	if decision == SubmissionApproved {
		points = sql.NullInt64{Int64: pointsAwarded, Valid: true}
	}
	var fb sql.NullString
	if feedback != "" {
		fb = sql.NullString{String: feedback, Valid: true}
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE task_submissions
		SET status = $1, reviewed_by = $2, feedback = $3, points_awarded = $4, reviewed_at = $5
		WHERE id = $6 AND status = $7
	`, decision, reviewerID, fb, points, time.Now(), submissionID, SubmissionPending)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE tasks SET status = $1, updated_at = now()
		WHERE id = (SELECT task_id FROM task_submissions WHERE id = $2)
	`, taskStatus, submissionID); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

func (r *repository) Cancel(ctx context.Context, taskID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET status = $1, updated_at = now()
		WHERE id = $2 AND status IN ($3, $4)
	`, StatusCancelled, taskID, StatusOpen, StatusInProgress)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}
