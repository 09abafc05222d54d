package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/fluxo-portal/internal/api/dto"
	"github.com/spec-kit/fluxo-portal/internal/service"
	apperrors "github.com/spec-kit/fluxo-portal/pkg/util/errorutil"
)

// AdminHandler provisions administrator accounts behind the setup token.
type AdminHandler struct {
	auth *service.AuthService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authService *service.AuthService) *AdminHandler {
	return &AdminHandler{auth: authService}
}

// Register handles POST /admin/registo. Accepts JSON or form bodies.
func (h *AdminHandler) Register(c *fiber.Ctx) error {
	var req dto.AdminRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(dto.ErrorsResponse{
			Errors: []dto.ErrorItem{{Msg: "Pedido inválido"}},
		})
	}

	user, err := h.auth.RegisterAdmin(c.UserContext(), req.Input())
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		switch domainErr.Code {
		case apperrors.CodeValidationFailed:
			items := make([]dto.ErrorItem, 0, len(domainErr.Fields))
			for _, f := range domainErr.Fields {
				items = append(items, dto.ErrorItem{Field: f.Field, Msg: f.Message})
			}
			return c.Status(http.StatusBadRequest).JSON(dto.ErrorsResponse{Errors: items})
		case apperrors.CodeInvalidToken:
			return c.Status(http.StatusBadRequest).JSON(dto.ErrorsResponse{
				Errors: []dto.ErrorItem{{Field: "token", Msg: domainErr.Message}},
			})
		case apperrors.CodeDuplicateEmail:
			return c.Status(http.StatusConflict).JSON(dto.ErrorsResponse{
				Errors: []dto.ErrorItem{{Field: "email", Msg: domainErr.Message}},
			})
		default:
			return err
		}
	}

	return c.Status(http.StatusCreated).JSON(dto.MessageResponse{
		Message: "Administrador registado com sucesso",
		ID:      user.ID,
	})
}
