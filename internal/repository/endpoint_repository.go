package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/inbox-service/internal/domain"
)

// EndpointRepository loads channel endpoints with their routing queues.
type EndpointRepository interface {
	// GetByID returns the endpoint with queues and chatbots loaded,
	// ordered by id so menu numbering is stable.
	GetByID(ctx context.Context, id string) (*domain.ChannelEndpoint, error)
	GetByPageUserID(ctx context.Context, pageUserID string) (*domain.ChannelEndpoint, error)
}

type endpointRepository struct {
	pool *pgxpool.Pool
}

// NewEndpointRepository instantiates repository.
func NewEndpointRepository(pool *pgxpool.Pool) EndpointRepository {
	return &endpointRepository{pool: pool}
}

const endpointColumns = `id, company_id, name, channel, page_user_id, greeting_message,
        farewell_message, rating_message, max_use_bot_queues, max_use_bot_queues_nps, created_at, updated_at`

func (r *endpointRepository) GetByID(ctx context.Context, id string) (*domain.ChannelEndpoint, error) {
	query := `SELECT ` + endpointColumns + ` FROM channel_endpoints WHERE id=$1`
	return r.fetchWithQueues(ctx, query, id)
}

func (r *endpointRepository) GetByPageUserID(ctx context.Context, pageUserID string) (*domain.ChannelEndpoint, error) {
	query := `SELECT ` + endpointColumns + ` FROM channel_endpoints WHERE page_user_id=$1`
	return r.fetchWithQueues(ctx, query, pageUserID)
}

func (r *endpointRepository) fetchWithQueues(ctx context.Context, query string, arg any) (*domain.ChannelEndpoint, error) {
	var endpoint domain.ChannelEndpoint
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&endpoint.ID,
		&endpoint.CompanyID,
		&endpoint.Name,
		&endpoint.Channel,
		&endpoint.PageUserID,
		&endpoint.GreetingMessage,
		&endpoint.FarewellMessage,
		&endpoint.RatingMessage,
		&endpoint.MaxUseBotQueues,
		&endpoint.MaxUseBotQueuesNPS,
		&endpoint.CreatedAt,
		&endpoint.UpdatedAt,
	); err != nil {
		return nil, err
	}

	queues, err := r.loadQueues(ctx, endpoint.ID)
	if err != nil {
		return nil, err
	}
	endpoint.Queues = queues
	return &endpoint, nil
}

func (r *endpointRepository) loadQueues(ctx context.Context, endpointID string) ([]domain.Queue, error) {
	const query = `
        SELECT q.id, q.company_id, q.name, q.color, q.greeting_message, q.created_at, q.updated_at
        FROM queues q
        JOIN endpoint_queues eq ON eq.queue_id = q.id
        WHERE eq.endpoint_id=$1
        ORDER BY q.id ASC`
	rows, err := r.pool.Query(ctx, query, endpointID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var queues []domain.Queue
	for rows.Next() {
		var queue domain.Queue
		if err := rows.Scan(
			&queue.ID,
			&queue.CompanyID,
			&queue.Name,
			&queue.Color,
			&queue.GreetingMessage,
			&queue.CreatedAt,
			&queue.UpdatedAt,
		); err != nil {
			return nil, err
		}
		queues = append(queues, queue)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range queues {
		chatbots, err := r.loadChatbots(ctx, queues[i].ID)
		if err != nil {
			return nil, err
		}
		queues[i].Chatbots = chatbots
	}
	return queues, nil
}

func (r *endpointRepository) loadChatbots(ctx context.Context, queueID string) ([]domain.Chatbot, error) {
	const query = `
        SELECT id, queue_id, name, greeting_message, created_at
        FROM chatbots WHERE queue_id=$1 ORDER BY id ASC`
	rows, err := r.pool.Query(ctx, query, queueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chatbots []domain.Chatbot
	for rows.Next() {
		var chatbot domain.Chatbot
		if err := rows.Scan(
			&chatbot.ID,
			&chatbot.QueueID,
			&chatbot.Name,
			&chatbot.GreetingMessage,
			&chatbot.CreatedAt,
		); err != nil {
			return nil, err
		}
		chatbots = append(chatbots, chatbot)
	}
	return chatbots, rows.Err()
}
