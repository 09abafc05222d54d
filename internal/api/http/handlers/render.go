package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/fluxo-portal/internal/api/dto"
	"github.com/spec-kit/fluxo-portal/internal/session"
	"github.com/spec-kit/fluxo-portal/internal/web"
)

// Page titles.
const (
	TitleHome      = "Fluxo Softwares | Tecnologia vibrante para acelerar o seu negócio"
	TitleContact   = "Fale com a Fluxo Softwares"
	TitleLogin     = "Área do cliente | Entrar"
	TitleRegister  = "Criar conta na Fluxo Softwares"
	TitleDashboard = "Painel do cliente"
	TitleNotFound  = "Página não encontrada"
	TitleError     = "Erro interno"
)

// LayoutFor builds the shared layout data from the request's session.
func LayoutFor(c *fiber.Ctx, title string) dto.Layout {
	layout := dto.Layout{Title: title}
	if identity, ok := session.From(c).Identity(); ok {
		layout.CurrentUser = &identity
	}
	return layout
}

func render(c *fiber.Ctx, status int, view string, data any) error {
	return c.Status(status).Render(view, data, web.DefaultLayout)
}
