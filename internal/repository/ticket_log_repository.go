package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/inbox-service/internal/domain"
)

// TicketLogRepository appends audit entries. Write-only from the engine.
type TicketLogRepository interface {
	Create(ctx context.Context, entry *domain.TicketLogEntry) error
}

type ticketLogRepository struct {
	pool *pgxpool.Pool
}

// NewTicketLogRepository instantiates repository.
func NewTicketLogRepository(pool *pgxpool.Pool) TicketLogRepository {
	return &ticketLogRepository{pool: pool}
}

func (r *ticketLogRepository) Create(ctx context.Context, entry *domain.TicketLogEntry) error {
	const query = `
        INSERT INTO ticket_logs (ticket_id, company_id, agent_id, queue_id, type)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.CompanyID,
		entry.AgentID,
		entry.QueueID,
		entry.Type,
	).Scan(&entry.ID, &entry.CreatedAt)
}
