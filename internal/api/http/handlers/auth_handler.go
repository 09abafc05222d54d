package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/fluxo-portal/internal/api/dto"
	"github.com/spec-kit/fluxo-portal/internal/auth"
	"github.com/spec-kit/fluxo-portal/internal/service"
	"github.com/spec-kit/fluxo-portal/internal/session"
	apperrors "github.com/spec-kit/fluxo-portal/pkg/util/errorutil"
)

// AuthHandler exposes the login, registration and logout pages.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// LoginForm handles GET /login.
func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, http.StatusOK, "login", dto.LoginView{Layout: LayoutFor(c, TitleLogin)})
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var form dto.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	identity, err := h.auth.Authenticate(c.UserContext(), form.Input())
	if err != nil {
		view := dto.LoginView{Layout: LayoutFor(c, TitleLogin), Form: form.Redacted(), Errors: dto.NewFormErrors(err)}
		switch {
		case apperrors.HasCode(err, apperrors.CodeValidationFailed):
			return render(c, http.StatusBadRequest, "login", view)
		case apperrors.HasCode(err, apperrors.CodeInvalidCredentials):
			return render(c, http.StatusUnauthorized, "login", view)
		default:
			return err
		}
	}

	sess := session.From(c)
	sess.Login(identity)
	return c.Redirect(sess.ConsumeRedirect(auth.DashboardPath))
}

// RegisterForm handles GET /registo.
func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	return render(c, http.StatusOK, "register", dto.RegisterView{Layout: LayoutFor(c, TitleRegister)})
}

// Register handles POST /registo. A taken email is shown like any other
// form error.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var form dto.RegisterForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	identity, err := h.auth.Register(c.UserContext(), form.Input())
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeValidationFailed) && !apperrors.HasCode(err, apperrors.CodeDuplicateEmail) {
			return err
		}
		return render(c, http.StatusBadRequest, "register", dto.RegisterView{
			Layout: LayoutFor(c, TitleRegister),
			Form:   form.Redacted(),
			Errors: dto.NewFormErrors(err),
		})
	}

	session.From(c).Login(identity)
	return c.Redirect(auth.DashboardPath)
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	session.From(c).Destroy()
	return c.Redirect("/")
}
