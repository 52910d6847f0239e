package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/inbox-service/internal/domain"
)

// MessageRepository encapsulates message persistence. Messages are
// append-only; there is no update path.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	GetByExternalID(ctx context.Context, companyID int64, externalID string) (*domain.Message, error)
	ListByTicket(ctx context.Context, ticketID string, limit int) ([]domain.Message, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository instantiates repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

const messageColumns = `id, external_id, ticket_id, company_id, contact_id, body, from_me, read,
        media_type, media_url, quoted_msg_id, ack, created_at`

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	const query = `
        INSERT INTO messages (external_id, ticket_id, company_id, contact_id, body, from_me, read,
            media_type, media_url, quoted_msg_id, ack)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		message.ExternalID,
		message.TicketID,
		message.CompanyID,
		message.ContactID,
		message.Body,
		message.FromMe,
		message.Read,
		message.MediaType,
		message.MediaURL,
		message.QuotedMsgID,
		message.Ack,
	).Scan(&message.ID, &message.CreatedAt)
}

func (r *messageRepository) GetByExternalID(ctx context.Context, companyID int64, externalID string) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE company_id=$1 AND external_id=$2`
	var message domain.Message
	if err := r.pool.QueryRow(ctx, query, companyID, externalID).Scan(
		&message.ID,
		&message.ExternalID,
		&message.TicketID,
		&message.CompanyID,
		&message.ContactID,
		&message.Body,
		&message.FromMe,
		&message.Read,
		&message.MediaType,
		&message.MediaURL,
		&message.QuotedMsgID,
		&message.Ack,
		&message.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) ListByTicket(ctx context.Context, ticketID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + messageColumns + `
        FROM messages WHERE ticket_id=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, ticketID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var message domain.Message
		if err := rows.Scan(
			&message.ID,
			&message.ExternalID,
			&message.TicketID,
			&message.CompanyID,
			&message.ContactID,
			&message.Body,
			&message.FromMe,
			&message.Read,
			&message.MediaType,
			&message.MediaURL,
			&message.QuotedMsgID,
			&message.Ack,
			&message.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, message)
	}
	return result, rows.Err()
}
