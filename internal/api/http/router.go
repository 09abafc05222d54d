package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"go.uber.org/zap"

	"github.com/spec-kit/fluxo-portal/internal/api/http/handlers"
	"github.com/spec-kit/fluxo-portal/internal/auth"
	"github.com/spec-kit/fluxo-portal/internal/config"
	"github.com/spec-kit/fluxo-portal/internal/observability"
	"github.com/spec-kit/fluxo-portal/internal/session"
	"github.com/spec-kit/fluxo-portal/internal/web"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Pages     *handlers.PagesHandler
	Auth      *handlers.AuthHandler
	Admin     *handlers.AdminHandler
	Dashboard *handlers.DashboardHandler
	Sessions  *session.Manager
}

// NewApp builds the Fiber application with the embedded views and the global
// middlewares.
func NewApp(cfg config.AppConfig, logger *zap.Logger, metrics *observability.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.Name,
		Views:                 web.NewEngine(),
		Immutable:             true,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, metrics, cfg.RequestTimeout())
	return app
}

// RegisterRoutes wires HTTP routes. Probes, assets and the admin API skip
// the session; everything else loads it.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   web.Static(),
		MaxAge: 3600,
	}))

	app.Post("/admin/registo", cfg.Admin.Register)

	site := app.Group("", cfg.Sessions.Middleware())
	site.Get("/", cfg.Pages.Home)
	site.Get("/contacto", cfg.Pages.ContactForm)
	site.Post("/contacto", cfg.Pages.SubmitContact)

	site.Get(auth.LoginPath, cfg.Auth.LoginForm)
	site.Post(auth.LoginPath, cfg.Auth.Login)
	site.Get("/registo", cfg.Auth.RegisterForm)
	site.Post("/registo", cfg.Auth.Register)

	// Guarded per route so unknown paths still fall through to the 404 page.
	requireSession := auth.RequireSession()
	site.Post("/logout", requireSession, cfg.Auth.Logout)
	site.Get(auth.DashboardPath, requireSession, cfg.Dashboard.Show)
	site.Post("/solicitacoes", requireSession, cfg.Dashboard.SubmitRequest)
	site.Post("/solicitacoes/:id/status", requireSession, cfg.Dashboard.UpdateStatus)
}
