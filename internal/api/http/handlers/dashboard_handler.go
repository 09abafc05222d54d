package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/fluxo-portal/internal/api/dto"
	"github.com/spec-kit/fluxo-portal/internal/auth"
	"github.com/spec-kit/fluxo-portal/internal/domain"
	"github.com/spec-kit/fluxo-portal/internal/service"
	"github.com/spec-kit/fluxo-portal/internal/session"
	apperrors "github.com/spec-kit/fluxo-portal/pkg/util/errorutil"
)

// DashboardHandler serves the signed-in area.
type DashboardHandler struct {
	requests *service.RequestService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(requestService *service.RequestService) *DashboardHandler {
	return &DashboardHandler{requests: requestService}
}

// Show handles GET /painel. The pending flash notice is consumed only once
// the dashboard has loaded, so a failed render keeps it for the next visit.
func (h *DashboardHandler) Show(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("session required")
	}
	board, err := h.requests.LoadDashboard(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return h.renderBoard(c, identity, board, http.StatusOK, dto.DashboardView{Flash: session.From(c).ConsumeFlash()})
}

// SubmitRequest handles POST /solicitacoes.
func (h *DashboardHandler) SubmitRequest(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("session required")
	}
	var form dto.ClientRequestForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	_, err := h.requests.SubmitClientRequest(c.UserContext(), identity, form.Input())
	switch {
	case err == nil:
		return h.render(c, identity, http.StatusOK, dto.DashboardView{Success: true})
	case apperrors.HasCode(err, apperrors.CodeRoleForbidden):
		return h.render(c, identity, http.StatusForbidden, dto.DashboardView{Errors: dto.NewFormErrors(err)})
	case apperrors.HasCode(err, apperrors.CodeValidationFailed):
		return h.render(c, identity, http.StatusBadRequest, dto.DashboardView{Form: form, Errors: dto.NewFormErrors(err)})
	default:
		return err
	}
}

// UpdateStatus handles POST /solicitacoes/:id/status. Every outcome the
// actor can act on is reported through the flash notice on /painel.
func (h *DashboardHandler) UpdateStatus(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("session required")
	}
	var form dto.StatusForm
	if err := c.BodyParser(&form); err != nil {
		form = dto.StatusForm{}
	}

	sess := session.From(c)
	status, err := h.requests.UpdateStatus(c.UserContext(), identity, c.Params("id"), form.Status)
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		switch domainErr.Code {
		case apperrors.CodeRoleForbidden, apperrors.CodeValidationFailed, apperrors.CodeNotFound:
			sess.SetFlash(session.FlashError, domainErr.Message)
			return c.Redirect(auth.DashboardPath)
		default:
			return err
		}
	}

	sess.SetFlash(session.FlashSuccess, fmt.Sprintf(`Estado actualizado para "%s" com sucesso.`, status.Label()))
	return c.Redirect(auth.DashboardPath)
}

func (h *DashboardHandler) render(c *fiber.Ctx, identity domain.Identity, status int, view dto.DashboardView) error {
	board, err := h.requests.LoadDashboard(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return h.renderBoard(c, identity, board, status, view)
}

func (h *DashboardHandler) renderBoard(c *fiber.Ctx, identity domain.Identity, board *service.Dashboard, status int, view dto.DashboardView) error {
	view.Layout = LayoutFor(c, TitleDashboard)
	view.Requests = board.Requests
	view.Totals = board.Totals
	view.IsAdmin = identity.IsAdmin()
	view.StatusOptions = domain.RequestStatuses()
	return render(c, status, "dashboard", view)
}
