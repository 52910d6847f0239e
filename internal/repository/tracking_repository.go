package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/inbox-service/internal/domain"
)

// TrackingRepository encapsulates ticket tracking persistence.
type TrackingRepository interface {
	Create(ctx context.Context, tracking *domain.TicketTracking) error
	Update(ctx context.Context, tracking *domain.TicketTracking) error
	// FindOpenByTicket returns the tracking row for the ticket's current
	// lifetime (finished_at null), or pgx.ErrNoRows.
	FindOpenByTicket(ctx context.Context, ticketID string) (*domain.TicketTracking, error)
	Delete(ctx context.Context, id string) error
}

type trackingRepository struct {
	pool *pgxpool.Pool
}

// NewTrackingRepository instantiates repository.
func NewTrackingRepository(pool *pgxpool.Pool) TrackingRepository {
	return &trackingRepository{pool: pool}
}

const trackingColumns = `id, ticket_id, company_id, endpoint_id, queue_id, agent_id,
        queued_at, started_at, closed_at, finished_at, rating_at, rate, rated, created_at, updated_at`

func (r *trackingRepository) Create(ctx context.Context, tracking *domain.TicketTracking) error {
	const query = `
        INSERT INTO ticket_trackings (ticket_id, company_id, endpoint_id, queue_id, agent_id,
            queued_at, started_at, closed_at, finished_at, rating_at, rate, rated)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		tracking.TicketID,
		tracking.CompanyID,
		tracking.EndpointID,
		tracking.QueueID,
		tracking.AgentID,
		tracking.QueuedAt,
		tracking.StartedAt,
		tracking.ClosedAt,
		tracking.FinishedAt,
		tracking.RatingAt,
		tracking.Rate,
		tracking.Rated,
	).Scan(&tracking.ID, &tracking.CreatedAt, &tracking.UpdatedAt)
}

func (r *trackingRepository) Update(ctx context.Context, tracking *domain.TicketTracking) error {
	const query = `
        UPDATE ticket_trackings SET queue_id=$1, agent_id=$2, queued_at=$3, started_at=$4,
            closed_at=$5, finished_at=$6, rating_at=$7, rate=$8, rated=$9, updated_at=NOW()
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		tracking.QueueID,
		tracking.AgentID,
		tracking.QueuedAt,
		tracking.StartedAt,
		tracking.ClosedAt,
		tracking.FinishedAt,
		tracking.RatingAt,
		tracking.Rate,
		tracking.Rated,
		tracking.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *trackingRepository) FindOpenByTicket(ctx context.Context, ticketID string) (*domain.TicketTracking, error) {
	query := `SELECT ` + trackingColumns + `
        FROM ticket_trackings
        WHERE ticket_id=$1 AND finished_at IS NULL
        ORDER BY created_at DESC
        LIMIT 1`
	var tracking domain.TicketTracking
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&tracking.ID,
		&tracking.TicketID,
		&tracking.CompanyID,
		&tracking.EndpointID,
		&tracking.QueueID,
		&tracking.AgentID,
		&tracking.QueuedAt,
		&tracking.StartedAt,
		&tracking.ClosedAt,
		&tracking.FinishedAt,
		&tracking.RatingAt,
		&tracking.Rate,
		&tracking.Rated,
		&tracking.CreatedAt,
		&tracking.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &tracking, nil
}

func (r *trackingRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_trackings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
