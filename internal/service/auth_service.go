package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/inbox-service/internal/auth"
	"github.com/spec-kit/inbox-service/internal/domain"
	"github.com/spec-kit/inbox-service/internal/repository"
	apperrors "github.com/spec-kit/inbox-service/pkg/util/errorutil"
)

// AuthService authenticates agents and issues access tokens.
type AuthService struct {
	agents repository.AgentRepository
	tokens *auth.TokenManager
	logger *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(agents repository.AgentRepository, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{agents: agents, tokens: tokens, logger: logger}
}

// LoginResult carries the issued token and its principal.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Agent     *domain.Agent
}

// Login verifies credentials and returns a signed token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, companyID int64, email, password string) (*LoginResult, error) {
	agent, err := s.agents.GetByEmail(ctx, companyID, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}

	if !auth.CheckPassword(agent.PasswordHash, password) {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(agent.ID, agent.CompanyID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("agent logged in",
		zap.String("agent_id", agent.ID),
		zap.Int64("company_id", agent.CompanyID))
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Agent: agent}, nil
}
