package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/fluxo-portal/internal/api/dto"
	"github.com/spec-kit/fluxo-portal/internal/service"
	apperrors "github.com/spec-kit/fluxo-portal/pkg/util/errorutil"
)

// PagesHandler serves the public marketing pages.
type PagesHandler struct {
	requests *service.RequestService
}

// NewPagesHandler constructs handler.
func NewPagesHandler(requestService *service.RequestService) *PagesHandler {
	return &PagesHandler{requests: requestService}
}

// Home handles GET /.
func (h *PagesHandler) Home(c *fiber.Ctx) error {
	return render(c, http.StatusOK, "home", dto.HomeView{Layout: LayoutFor(c, TitleHome)})
}

// ContactForm handles GET /contacto.
func (h *PagesHandler) ContactForm(c *fiber.Ctx) error {
	return render(c, http.StatusOK, "contact", dto.ContactView{Layout: LayoutFor(c, TitleContact)})
}

// SubmitContact handles POST /contacto.
func (h *PagesHandler) SubmitContact(c *fiber.Ctx) error {
	var form dto.ContactForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	view := dto.ContactView{Layout: LayoutFor(c, TitleContact)}
	if _, err := h.requests.SubmitContact(c.UserContext(), form.Input()); err != nil {
		if !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
			return err
		}
		view.Form = form
		view.Errors = dto.NewFormErrors(err)
		return render(c, http.StatusBadRequest, "contact", view)
	}

	view.Success = true
	return render(c, http.StatusOK, "contact", view)
}
