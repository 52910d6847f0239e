package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/inbox-service/internal/domain"
)

// AgentRepository encapsulates agent persistence.
type AgentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	GetByEmail(ctx context.Context, companyID int64, email string) (*domain.Agent, error)
}

type agentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository instantiates repository.
func NewAgentRepository(pool *pgxpool.Pool) AgentRepository {
	return &agentRepository{pool: pool}
}

const agentColumns = `id, company_id, name, email, password_hash, farewell_message, online, created_at, updated_at`

func (r *agentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *agentRepository) GetByEmail(ctx context.Context, companyID int64, email string) (*domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE company_id=$1 AND email=$2`
	return r.fetchSingle(ctx, query, companyID, email)
}

func (r *agentRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Agent, error) {
	var agent domain.Agent
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&agent.ID,
		&agent.CompanyID,
		&agent.Name,
		&agent.Email,
		&agent.PasswordHash,
		&agent.FarewellMessage,
		&agent.Online,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &agent, nil
}
