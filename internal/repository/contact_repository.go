package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/inbox-service/internal/domain"
)

// ContactRepository encapsulates contact persistence.
type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	Update(ctx context.Context, contact *domain.Contact) error
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	GetByIdentity(ctx context.Context, companyID int64, channel domain.ChannelType, number string) (*domain.Contact, error)
}

type contactRepository struct {
	pool *pgxpool.Pool
}

// NewContactRepository instantiates repository.
func NewContactRepository(pool *pgxpool.Pool) ContactRepository {
	return &contactRepository{pool: pool}
}

func (r *contactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	const query = `
        INSERT INTO contacts (company_id, name, number, channel, profile_pic_url, is_group, lgpd_accepted_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		contact.CompanyID,
		contact.Name,
		contact.Number,
		contact.Channel,
		contact.ProfilePicURL,
		contact.IsGroup,
		contact.LgpdAcceptedAt,
	).Scan(&contact.ID, &contact.CreatedAt, &contact.UpdatedAt)
}

func (r *contactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	const query = `
        UPDATE contacts SET name=$1, profile_pic_url=$2, lgpd_accepted_at=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		contact.Name,
		contact.ProfilePicURL,
		contact.LgpdAcceptedAt,
		contact.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *contactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	const query = `
        SELECT id, company_id, name, number, channel, profile_pic_url, is_group, lgpd_accepted_at, created_at, updated_at
        FROM contacts WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *contactRepository) GetByIdentity(ctx context.Context, companyID int64, channel domain.ChannelType, number string) (*domain.Contact, error) {
	const query = `
        SELECT id, company_id, name, number, channel, profile_pic_url, is_group, lgpd_accepted_at, created_at, updated_at
        FROM contacts WHERE company_id=$1 AND channel=$2 AND number=$3`
	return r.fetchSingle(ctx, query, companyID, channel, number)
}

func (r *contactRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Contact, error) {
	var contact domain.Contact
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&contact.ID,
		&contact.CompanyID,
		&contact.Name,
		&contact.Number,
		&contact.Channel,
		&contact.ProfilePicURL,
		&contact.IsGroup,
		&contact.LgpdAcceptedAt,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &contact, nil
}
