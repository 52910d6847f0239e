package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/inbox-service/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// FindActive returns the single non-closed ticket for the
	// (contact, endpoint, isGroup) tuple, or pgx.ErrNoRows.
	FindActive(ctx context.Context, contactID, endpointID string, isGroup bool) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, company_id, contact_id, endpoint_id, queue_id, agent_id, status, channel,
        is_group, is_bot, unread_messages, last_message, amount_used_bot_queues, amount_use_bot_queues_nps,
        lgpd_send_message_at, lgpd_accepted_at, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (company_id, contact_id, endpoint_id, queue_id, agent_id, status, channel,
            is_group, is_bot, unread_messages, last_message, amount_used_bot_queues, amount_use_bot_queues_nps,
            lgpd_send_message_at, lgpd_accepted_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.CompanyID,
		ticket.ContactID,
		ticket.EndpointID,
		ticket.QueueID,
		ticket.AgentID,
		ticket.Status,
		ticket.Channel,
		ticket.IsGroup,
		ticket.IsBot,
		ticket.UnreadMessages,
		ticket.LastMessage,
		ticket.AmountUsedBotQueues,
		ticket.AmountUseBotQueuesNPS,
		ticket.LgpdSendMessageAt,
		ticket.LgpdAcceptedAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET queue_id=$1, agent_id=$2, status=$3, is_bot=$4, unread_messages=$5,
            last_message=$6, amount_used_bot_queues=$7, amount_use_bot_queues_nps=$8,
            lgpd_send_message_at=$9, lgpd_accepted_at=$10, updated_at=NOW()
        WHERE id=$11`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.QueueID,
		ticket.AgentID,
		ticket.Status,
		ticket.IsBot,
		ticket.UnreadMessages,
		ticket.LastMessage,
		ticket.AmountUsedBotQueues,
		ticket.AmountUseBotQueuesNPS,
		ticket.LgpdSendMessageAt,
		ticket.LgpdAcceptedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) FindActive(ctx context.Context, contactID, endpointID string, isGroup bool) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
        FROM tickets
        WHERE contact_id=$1 AND endpoint_id=$2 AND is_group=$3 AND status <> 'closed'
        ORDER BY updated_at DESC
        LIMIT 1`
	return r.fetchSingle(ctx, query, contactID, endpointID, isGroup)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.CompanyID,
		&ticket.ContactID,
		&ticket.EndpointID,
		&ticket.QueueID,
		&ticket.AgentID,
		&ticket.Status,
		&ticket.Channel,
		&ticket.IsGroup,
		&ticket.IsBot,
		&ticket.UnreadMessages,
		&ticket.LastMessage,
		&ticket.AmountUsedBotQueues,
		&ticket.AmountUseBotQueuesNPS,
		&ticket.LgpdSendMessageAt,
		&ticket.LgpdAcceptedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
