package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/inbox-service/internal/domain"
)

// SettingsRepository reads per-company settings snapshots. Settings CRUD
// is owned elsewhere; the engine only reads.
type SettingsRepository interface {
	GetByCompany(ctx context.Context, companyID int64) (*domain.CompanySettings, error)
}

type settingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository instantiates repository.
func NewSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepository{pool: pool}
}

func (r *settingsRepository) GetByCompany(ctx context.Context, companyID int64) (*domain.CompanySettings, error) {
	const query = `
        SELECT company_id, enable_lgpd, lgpd_consent, lgpd_message, lgpd_link,
               user_rating, send_transfer_message, send_farewell_waiting_ticket
        FROM company_settings WHERE company_id=$1`
	var settings domain.CompanySettings
	if err := r.pool.QueryRow(ctx, query, companyID).Scan(
		&settings.CompanyID,
		&settings.EnableLGPD,
		&settings.LGPDConsent,
		&settings.LGPDMessage,
		&settings.LGPDLink,
		&settings.UserRating,
		&settings.SendTransferMessage,
		&settings.SendFarewellWaitingTicket,
	); err != nil {
		return nil, err
	}
	return &settings, nil
}
