package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/fluxo-portal/internal/api/dto"
	"github.com/spec-kit/fluxo-portal/internal/api/http/handlers"
	"github.com/spec-kit/fluxo-portal/internal/auth"
	"github.com/spec-kit/fluxo-portal/internal/config"
	"github.com/spec-kit/fluxo-portal/internal/domain"
	"github.com/spec-kit/fluxo-portal/internal/events"
	"github.com/spec-kit/fluxo-portal/internal/observability"
	"github.com/spec-kit/fluxo-portal/internal/repository/repositorytest"
	"github.com/spec-kit/fluxo-portal/internal/service"
	"github.com/spec-kit/fluxo-portal/internal/session"
)

const (
	testCookie     = "fluxo.sid"
	testAdminToken = "setup-token"
)

type testServer struct {
	app      *fiber.App
	users    *repositorytest.Users
	requests *repositorytest.Requests
	sessions *session.MemoryStore
	metrics  *observability.Metrics
	authSvc  *service.AuthService
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, adminToken string) *testServer {
	t.Helper()
	cfg := config.Config{
		App:  config.AppConfig{Name: "fluxo-portal", Version: "test", RequestTimeoutSeconds: 5},
		Auth: config.AuthConfig{BcryptCost: bcrypt.MinCost, AdminSetupToken: adminToken},
	}
	logger := zap.NewNop()
	dispatcher := events.NewInMemoryDispatcher()
	users := repositorytest.NewUsers()
	requests := repositorytest.NewRequests(users)

	authSvc := service.NewAuthService(cfg, service.AuthDependencies{UserRepo: users, Dispatcher: dispatcher, Logger: logger})
	requestSvc := service.NewRequestService(service.RequestDependencies{RequestRepo: requests, Dispatcher: dispatcher, Logger: logger})

	store := session.NewMemoryStore()
	manager := session.NewManager(store, auth.NewTokenManager("test-secret", time.Hour),
		session.Options{CookieName: testCookie, TTL: time.Hour}, logger)

	metrics := observability.NewMetrics()
	app := NewApp(cfg.App, logger, metrics)
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": stubPinger{},
		}, metrics),
		Pages:     handlers.NewPagesHandler(requestSvc),
		Auth:      handlers.NewAuthHandler(authSvc),
		Admin:     handlers.NewAdminHandler(authSvc),
		Dashboard: handlers.NewDashboardHandler(requestSvc),
		Sessions:  manager,
	})
	return &testServer{app: app, users: users, requests: requests, sessions: store, metrics: metrics, authSvc: authSvc}
}

// browser replays the session cookie between requests.
type browser struct {
	t      *testing.T
	srv    *testServer
	cookie *nethttp.Cookie
}

func (s *testServer) newBrowser(t *testing.T) *browser {
	return &browser{t: t, srv: s}
}

type page struct {
	status   int
	location string
	body     string
}

func (b *browser) do(method, target string, form url.Values) page {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}
	req.Header.Set(fiber.HeaderAccept, fiber.MIMETextHTML)
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}

	resp, err := b.srv.app.Test(req, -1)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	for _, c := range resp.Cookies() {
		if c.Name != testCookie {
			continue
		}
		if c.Value == "" {
			b.cookie = nil
		} else {
			b.cookie = c
		}
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return page{status: resp.StatusCode, location: resp.Header.Get(fiber.HeaderLocation), body: string(raw)}
}

func (b *browser) get(target string) page {
	return b.do(fiber.MethodGet, target, nil)
}

func (b *browser) post(target string, form url.Values) page {
	if form == nil {
		form = url.Values{}
	}
	return b.do(fiber.MethodPost, target, form)
}

func (b *browser) register(name, email string) {
	b.t.Helper()
	res := b.post("/registo", url.Values{
		"name":            {name},
		"email":           {email},
		"password":        {"segredo123"},
		"confirmPassword": {"segredo123"},
	})
	require.Equal(b.t, nethttp.StatusFound, res.status, res.body)
}

func (b *browser) signInAsAdmin(s *testServer) {
	b.t.Helper()
	_, err := s.authSvc.RegisterAdmin(context.Background(), service.AdminRegisterInput{
		Token: testAdminToken, Name: "Eva Admin", Email: "eva@fluxo.pt", Password: "uma-senha-longa",
	})
	require.NoError(b.t, err)
	res := b.post("/login", url.Values{"email": {"eva@fluxo.pt"}, "password": {"uma-senha-longa"}})
	require.Equal(b.t, nethttp.StatusFound, res.status, res.body)
}

func TestPublicPages(t *testing.T) {
	srv := newTestServer(t, "")
	b := srv.newBrowser(t)

	home := b.get("/")
	assert.Equal(t, nethttp.StatusOK, home.status)
	assert.Contains(t, home.body, "Tecnologia vibrante")
	assert.Contains(t, home.body, `href="/login"`)

	for _, path := range []string{"/contacto", "/login", "/registo"} {
		assert.Equal(t, nethttp.StatusOK, b.get(path).status, path)
	}

	missing := b.get("/nao-existe")
	assert.Equal(t, nethttp.StatusNotFound, missing.status)
	assert.Contains(t, missing.body, "Página não encontrada")

	asset := b.get("/static/js/main.js")
	assert.Equal(t, nethttp.StatusOK, asset.status)
	assert.Contains(t, asset.body, "menu-toggle")
}

func TestContactForm(t *testing.T) {
	srv := newTestServer(t, "")
	b := srv.newBrowser(t)

	res := b.post("/contacto", url.Values{
		"contactName":     {"Joana"},
		"contactEmail":    {"joana@example.com"},
		"serviceInterest": {"Loja online"},
		"details":         {"Ola, preciso de um site"},
	})
	assert.Equal(t, nethttp.StatusOK, res.status)
	assert.Contains(t, res.body, "Recebemos o seu pedido")
	require.Equal(t, 1, srv.requests.Len())

	bad := b.post("/contacto", url.Values{
		"contactName":     {"Joana"},
		"contactEmail":    {"joana"},
		"serviceInterest": {"Loja online"},
		"details":         {"curto"},
	})
	assert.Equal(t, nethttp.StatusBadRequest, bad.status)
	assert.Contains(t, bad.body, "E-mail inválido")
	assert.Contains(t, bad.body, `value="Joana"`)
	assert.Equal(t, 1, srv.requests.Len())
}

func TestDashboardRequiresSessionAndReturnsAfterLogin(t *testing.T) {
	srv := newTestServer(t, "")
	_, err := srv.authSvc.Register(context.Background(), service.RegisterInput{
		Name: "Ana Sousa", Email: "ana@example.com", Password: "segredo123", ConfirmPassword: "segredo123",
	})
	require.NoError(t, err)
	b := srv.newBrowser(t)

	res := b.get("/painel")
	assert.Equal(t, nethttp.StatusFound, res.status)
	assert.Equal(t, auth.LoginPath, res.location)

	wrong := b.post("/login", url.Values{"email": {"ana@example.com"}, "password": {"errada"}})
	assert.Equal(t, nethttp.StatusUnauthorized, wrong.status)
	assert.Contains(t, wrong.body, "Credenciais inválidas")

	invalid := b.post("/login", url.Values{"email": {"ana"}})
	assert.Equal(t, nethttp.StatusBadRequest, invalid.status)

	ok := b.post("/login", url.Values{"email": {"ANA@example.com"}, "password": {"segredo123"}})
	assert.Equal(t, nethttp.StatusFound, ok.status)
	assert.Equal(t, "/painel", ok.location)

	dashboard := b.get("/painel")
	assert.Equal(t, nethttp.StatusOK, dashboard.status)
	assert.Contains(t, dashboard.body, "Os seus pedidos")
	// Only the signed-in session survives the login renewal.
	assert.Equal(t, 1, srv.sessions.Len())
}

func TestRedirectTargetSurvivesOtherVisitors(t *testing.T) {
	srv := newTestServer(t, "")
	_, err := srv.authSvc.Register(context.Background(), service.RegisterInput{
		Name: "Ana Sousa", Email: "ana@example.com", Password: "segredo123", ConfirmPassword: "segredo123",
	})
	require.NoError(t, err)

	ana := srv.newBrowser(t)
	require.Equal(t, auth.LoginPath, ana.get("/painel?aba=pedidos").location)

	other := srv.newBrowser(t)
	for i := 0; i < 100; i++ {
		other.get("/login")
		other.post("/login", url.Values{"email": {"ninguem@example.com"}, "password": {"xxxxxxxx"}})
	}

	ok := ana.post("/login", url.Values{"email": {"ana@example.com"}, "password": {"segredo123"}})
	assert.Equal(t, nethttp.StatusFound, ok.status)
	assert.Equal(t, "/painel?aba=pedidos", ok.location)
}

func TestClientRegisteredOverHTTPSignsInAgain(t *testing.T) {
	srv := newTestServer(t, "")
	b := srv.newBrowser(t)
	b.register("Ana Sousa", "ana@example.com")
	require.Equal(t, "/", b.post("/logout", nil).location)

	other := srv.newBrowser(t)
	for i := 0; i < 20; i++ {
		other.post("/contacto", url.Values{
			"contactName":     {"Visitante qualquer"},
			"contactEmail":    {"visitante@example.org"},
			"serviceInterest": {"Website"},
			"details":         {"Pedido sem relação nenhuma"},
		})
	}

	again := b.post("/login", url.Values{"email": {"ana@example.com"}, "password": {"segredo123"}})
	assert.Equal(t, nethttp.StatusFound, again.status, again.body)
	dashboard := b.get("/painel")
	assert.Equal(t, nethttp.StatusOK, dashboard.status)
	assert.Contains(t, dashboard.body, "Ana Sousa")
}

func TestRegistration(t *testing.T) {
	srv := newTestServer(t, "")
	b := srv.newBrowser(t)

	b.register("Ana Sousa", "ana@example.com")
	assert.Contains(t, b.get("/painel").body, "Sair (Ana Sousa)")

	other := srv.newBrowser(t)
	dup := other.post("/registo", url.Values{
		"name":            {"Outra Ana"},
		"email":           {"Ana@Example.com"},
		"password":        {"segredo123"},
		"confirmPassword": {"segredo123"},
	})
	assert.Equal(t, nethttp.StatusBadRequest, dup.status)
	assert.Contains(t, dup.body, "Já existe uma conta com este e-mail")
	assert.NotContains(t, dup.body, "segredo123")
	assert.Equal(t, 1, srv.users.Len())
}

func TestClientSubmitsRequestAndSeesTotals(t *testing.T) {
	srv := newTestServer(t, "")
	b := srv.newBrowser(t)
	b.register("Ana Sousa", "ana@example.com")

	created := b.post("/solicitacoes", url.Values{
		"serviceInterest": {"Aplicação móvel"},
		"details":         {"Aplicação de reservas para o restaurante"},
	})
	assert.Equal(t, nethttp.StatusOK, created.status)
	assert.Contains(t, created.body, "Pedido registado com sucesso")
	assert.Contains(t, created.body, `<dd data-total="all">1</dd>`)
	assert.Contains(t, created.body, `<dd data-total="new">1</dd>`)

	invalid := b.post("/solicitacoes", url.Values{"serviceInterest": {""}, "details": {"curto"}})
	assert.Equal(t, nethttp.StatusBadRequest, invalid.status)
	assert.Contains(t, invalid.body, "Descreva a sua ideia com pelo menos 10 caracteres")
	assert.Equal(t, 1, srv.requests.Len())
}

func TestAdminCannotSubmitRequests(t *testing.T) {
	srv := newTestServer(t, testAdminToken)
	b := srv.newBrowser(t)
	b.signInAsAdmin(srv)

	res := b.post("/solicitacoes", url.Values{
		"serviceInterest": {"Loja online"},
		"details":         {"Uma loja completa para a empresa"},
	})
	assert.Equal(t, nethttp.StatusForbidden, res.status)
	assert.Contains(t, res.body, "Administradores gerenciam pedidos existentes e não podem criar novos.")
	assert.Equal(t, 0, srv.requests.Len())
}

func TestAdminUpdatesStatusWithFlash(t *testing.T) {
	srv := newTestServer(t, testAdminToken)
	id := srv.requests.Seed(domain.Request{
		ContactName: "Joana", ContactEmail: "joana@example.com",
		ServiceInterest: "Website institucional", Details: "Site novo",
		Status: domain.StatusNew, IsContact: true,
	})
	b := srv.newBrowser(t)
	b.signInAsAdmin(srv)

	res := b.post("/solicitacoes/"+id+"/status", url.Values{"status": {"Em progresso"}})
	assert.Equal(t, nethttp.StatusFound, res.status)
	assert.Equal(t, "/painel", res.location)

	stored, err := srv.requests.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, stored.Status)

	dashboard := b.get("/painel")
	assert.Contains(t, dashboard.body, "Estado actualizado para &#34;Em progresso&#34; com sucesso.")
	assert.Contains(t, dashboard.body, "Formulário de contacto")
	assert.Contains(t, dashboard.body, `<dd data-total="in-progress">1</dd>`)

	// Consumed on first render.
	assert.NotContains(t, b.get("/painel").body, "Estado actualizado")

	invalid := b.post("/solicitacoes/"+id+"/status", url.Values{"status": {"Cancelado"}})
	assert.Equal(t, nethttp.StatusFound, invalid.status)
	assert.Contains(t, b.get("/painel").body, "Selecione um estado válido para a solicitação.")

	missing := b.post("/solicitacoes/not-a-uuid/status", url.Values{"status": {"Concluído"}})
	assert.Equal(t, nethttp.StatusFound, missing.status)
	assert.Contains(t, b.get("/painel").body, "Solicitação não encontrada.")
}

func TestFlashSurvivesFailedDashboardLoad(t *testing.T) {
	srv := newTestServer(t, testAdminToken)
	id := srv.requests.Seed(domain.Request{
		ContactName: "Joana", ContactEmail: "joana@example.com",
		ServiceInterest: "Website", Details: "Site novo",
		Status: domain.StatusNew, IsContact: true,
	})
	b := srv.newBrowser(t)
	b.signInAsAdmin(srv)
	require.Equal(t, nethttp.StatusFound, b.post("/solicitacoes/"+id+"/status", url.Values{"status": {"Concluído"}}).status)

	srv.requests.FailList(errors.New("connection reset"))
	failed := b.get("/painel")
	assert.Equal(t, nethttp.StatusInternalServerError, failed.status)
	assert.NotContains(t, failed.body, "Estado actualizado")

	srv.requests.FailList(nil)
	assert.Contains(t, b.get("/painel").body, "Estado actualizado para &#34;Concluído&#34; com sucesso.")
}

func TestClientCannotUpdateStatus(t *testing.T) {
	srv := newTestServer(t, "")
	b := srv.newBrowser(t)
	b.register("Ana Sousa", "ana@example.com")
	id := srv.requests.Seed(domain.Request{ContactName: "Ana", ContactEmail: "ana@example.com", Status: domain.StatusNew})

	res := b.post("/solicitacoes/"+id+"/status", url.Values{"status": {"Concluído"}})
	assert.Equal(t, nethttp.StatusFound, res.status)
	assert.Contains(t, b.get("/painel").body, "Apenas administradores podem actualizar o estado das solicitações.")

	stored, err := srv.requests.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, stored.Status)
	assert.Equal(t, 0, srv.requests.StatusUpdates())
}

func TestLogoutDestroysSession(t *testing.T) {
	srv := newTestServer(t, "")
	b := srv.newBrowser(t)
	b.register("Ana Sousa", "ana@example.com")
	require.Equal(t, 1, srv.sessions.Len())

	res := b.post("/logout", nil)
	assert.Equal(t, nethttp.StatusFound, res.status)
	assert.Equal(t, "/", res.location)
	assert.Nil(t, b.cookie)
	assert.Equal(t, 0, srv.sessions.Len())

	assert.Equal(t, nethttp.StatusFound, b.get("/painel").status)
}

func postJSON(t *testing.T, app *fiber.App, target, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func TestAdminRegistration(t *testing.T) {
	payload := `{"token":"setup-token","name":"Eva Admin","email":"eva@fluxo.pt","password":"uma-senha-longa"}`

	t.Run("not configured", func(t *testing.T) {
		srv := newTestServer(t, "")
		status, body := postJSON(t, srv.app, "/admin/registo", payload)
		assert.Equal(t, nethttp.StatusInternalServerError, status)
		assert.Contains(t, body, `"code":"CONFIGURATION_ERROR"`)
		assert.NotContains(t, body, "ADMIN_SETUP_TOKEN")
	})

	srv := newTestServer(t, testAdminToken)

	status, body := postJSON(t, srv.app, "/admin/registo", strings.Replace(payload, testAdminToken, "wrong", 1))
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Contains(t, body, "Token inválido")

	status, body = postJSON(t, srv.app, "/admin/registo", strings.Replace(payload, "uma-senha-longa", "curta", 1))
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Contains(t, body, "A palavra-passe deve ter pelo menos 12 caracteres")

	status, body = postJSON(t, srv.app, "/admin/registo", payload)
	assert.Equal(t, nethttp.StatusCreated, status)
	var created dto.MessageResponse
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	assert.Equal(t, "Administrador registado com sucesso", created.Message)
	stored, err := srv.users.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, stored.Role)

	status, _ = postJSON(t, srv.app, "/admin/registo", payload)
	assert.Equal(t, nethttp.StatusConflict, status)
	assert.Equal(t, 1, srv.users.Len())
}

func TestHealthProbes(t *testing.T) {
	srv := newTestServer(t, "")

	resp, err := srv.app.Test(httptest.NewRequest(fiber.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp, err = srv.app.Test(httptest.NewRequest(fiber.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	down := handlers.NewHealthHandler("fluxo-portal", "test", map[string]handlers.Pinger{
		"redis": stubPinger{err: errors.New("connection refused")},
	}, nil)
	app := fiber.New()
	app.Get("/ready", down.Ready)
	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetricsEndpointReportsTraffic(t *testing.T) {
	srv := newTestServer(t, "")
	b := srv.newBrowser(t)
	b.get("/")
	b.get("/")
	b.get("/nao-existe")

	resp, err := srv.app.Test(httptest.NewRequest(fiber.MethodGet, "/health/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	var payload struct {
		Metrics observability.Snapshot `json:"metrics"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))

	var home int64
	for _, stat := range payload.Metrics.Requests {
		if stat.Route == "/" && stat.Method == fiber.MethodGet && stat.Status == nethttp.StatusOK {
			home = stat.Count
		}
	}
	assert.Equal(t, int64(2), home)
	assert.NotEmpty(t, payload.Metrics.Errors)
}

func TestPanicsRenderErrorPage(t *testing.T) {
	srv := newTestServer(t, "")
	srv.app.Get("/boom", func(*fiber.Ctx) error { panic("kaboom") })

	req := httptest.NewRequest(fiber.MethodGet, "/boom", nil)
	req.Header.Set(fiber.HeaderAccept, fiber.MIMETextHTML)
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusInternalServerError, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "Ocorreu um erro inesperado")
	assert.NotContains(t, string(raw), "kaboom")
}
