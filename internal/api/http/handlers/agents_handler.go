package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inbox-service/internal/api/dto"
	"github.com/spec-kit/inbox-service/internal/service"
	apperrors "github.com/spec-kit/inbox-service/pkg/util/errorutil"
)

// AgentsHandler exposes agent authentication.
type AgentsHandler struct {
	auth *service.AuthService
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(authService *service.AuthService) *AgentsHandler {
	return &AgentsHandler{auth: authService}
}

// Login POST /auth/login.
func (h *AgentsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" || req.CompanyID == 0 {
		return apperrors.NewValidationError("companyId, email, password required", nil)
	}

	result, err := h.auth.Login(c.Context(), req.CompanyID, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Agent: dto.AgentResponse{
			ID:        result.Agent.ID,
			CompanyID: result.Agent.CompanyID,
			Name:      result.Agent.Name,
			Email:     result.Agent.Email,
		},
	})
}
