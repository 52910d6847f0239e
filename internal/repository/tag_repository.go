package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/inbox-service/internal/domain"
)

// TagRepository reads ticket tags and strips kanban tags when a ticket
// leaves the board.
type TagRepository interface {
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Tag, error)
	// RemoveKanbanTags detaches all kanban-flagged tags from the ticket.
	RemoveKanbanTags(ctx context.Context, ticketID string) error
}

type tagRepository struct {
	pool *pgxpool.Pool
}

// NewTagRepository instantiates repository.
func NewTagRepository(pool *pgxpool.Pool) TagRepository {
	return &tagRepository{pool: pool}
}

func (r *tagRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Tag, error) {
	const query = `
        SELECT t.id, t.company_id, t.name, t.color, t.kanban, t.created_at
        FROM tags t
        JOIN ticket_tags tt ON tt.tag_id = t.id
        WHERE tt.ticket_id=$1
        ORDER BY t.id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []domain.Tag
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(
			&tag.ID,
			&tag.CompanyID,
			&tag.Name,
			&tag.Color,
			&tag.Kanban,
			&tag.CreatedAt,
		); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (r *tagRepository) RemoveKanbanTags(ctx context.Context, ticketID string) error {
	const query = `
        DELETE FROM ticket_tags tt
        USING tags t
        WHERE tt.tag_id = t.id AND tt.ticket_id=$1 AND t.kanban`
	_, err := r.pool.Exec(ctx, query, ticketID)
	return err
}
