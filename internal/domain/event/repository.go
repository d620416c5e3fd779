package event

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines event data access
type Repository interface {
	Create(ctx context.Context, e *Event) error
	Update(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	List(ctx context.Context, from time.Time, limit, offset int) ([]*Event, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// InsertCheckIn records attendance once per member per event.
	// Returns false when the member had already checked in.
	InsertCheckIn(ctx context.Context, eventID, accountID uuid.UUID) (bool, error)
	ListCheckIns(ctx context.Context, eventID uuid.UUID) ([]*CheckIn, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates event repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, e *Event) error {
	query := `
		INSERT INTO events (id, title, description, location, points, starts_at, ends_at, organizer_id, created_at, updated_at)
		VALUES (:id, :title, :description, :location, :points, :starts_at, :ends_at, :organizer_id, :created_at, :updated_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, e)
	return err
}

func (r *repository) Update(ctx context.Context, e *Event) error {
	query := `
		UPDATE events
		SET title = :title, description = :description, location = :location,
		    points = :points, starts_at = :starts_at, ends_at = :ends_at, updated_at = :updated_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, e)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	var e Event
	err := r.db.GetContext(ctx, &e, `SELECT * FROM events WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) List(ctx context.Context, from time.Time, limit, offset int) ([]*Event, error) {
	events := []*Event{}
	query := `
		SELECT * FROM events
		WHERE ends_at >= $1
		ORDER BY starts_at ASC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &events, query, from, limit, offset); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *repository) InsertCheckIn(ctx context.Context, eventID, accountID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO event_checkins (event_id, account_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (event_id, account_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, eventID, accountID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *repository) ListCheckIns(ctx context.Context, eventID uuid.UUID) ([]*CheckIn, error) {
	checkins := []*CheckIn{}
	query := `SELECT * FROM event_checkins WHERE event_id = $1 ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &checkins, query, eventID); err != nil {
		return nil, err
	}
	return checkins, nil
}
