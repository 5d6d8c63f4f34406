package httpapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/internal/admin"
	"github.com/carlosapgomes/eda-triage/internal/promptstore"
)

// Server is the HTTP API server for the decision webhook/widget, login, and
// admin endpoints, grounded on pkg/api/server.go's Echo v5 wiring.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	client        *ent.Client
	decisions     *DecisionUseCase
	auth          *admin.AuthService
	users         *admin.UserService
	prompts       *promptstore.Store
	webhookSecret []byte
}

// Config holds Server construction parameters.
type Config struct {
	Client        *ent.Client
	Auth          *admin.AuthService
	Users         *admin.UserService
	Prompts       *promptstore.Store
	WebhookSecret string
}

// NewServer creates a Server and registers all routes.
func NewServer(cfg Config) *Server {
	e := echo.New()

	s := &Server{
		echo:          e,
		client:        cfg.Client,
		decisions:     NewDecisionUseCase(cfg.Client),
		auth:          cfg.Auth,
		users:         cfg.Users,
		prompts:       cfg.Prompts,
		webhookSecret: []byte(cfg.WebhookSecret),
	}

	s.setupRoutes()
	return s
}

// ValidateWiring checks that every dependency was supplied, catching wiring
// gaps at startup instead of as request-time panics.
func (s *Server) ValidateWiring() error {
	if s.client == nil {
		return fmt.Errorf("ent client not set")
	}
	if s.auth == nil {
		return fmt.Errorf("auth service not set")
	}
	if s.users == nil {
		return fmt.Errorf("user service not set")
	}
	if s.prompts == nil {
		return fmt.Errorf("prompt store not set")
	}
	if len(s.webhookSecret) == 0 {
		return fmt.Errorf("webhook secret not set")
	}
	return nil
}

func (s *Server) setupRoutes() {
	s.echo.Use(middleware.BodyLimit(2 * 1024 * 1024))

	s.echo.GET("/health", s.healthHandler)

	s.echo.POST("/callbacks/triage-decision", s.webhookDecisionHandler)
	s.echo.POST("/auth/login", s.loginHandler)

	widget := s.echo.Group("/widget/room2", requireAdminToken(s.client, s.auth))
	widget.POST("/bootstrap", s.widgetBootstrapHandler)
	widget.POST("/submit", s.widgetSubmitHandler)

	adminGroup := s.echo.Group("/admin", requireAdminToken(s.client, s.auth))
	adminGroup.GET("/prompts", s.listPromptsHandler)
	adminGroup.POST("/prompts", s.createPromptHandler)
	adminGroup.POST("/prompts/:name/activate/:version", s.activatePromptHandler)
	adminGroup.GET("/users", s.listUsersHandler)
	adminGroup.POST("/users", s.createUserHandler)
	adminGroup.GET("/cases", s.listCasesHandler)
	adminGroup.GET("/cases/:id", s.getCaseHandler)
}

// Echo exposes the underlying router so a sibling package can mount
// additional route groups (the normalized chat-event webhook in
// internal/inboundapi) without httpapi depending on it.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.echo}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener, used
// by tests that need a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(c *echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if _, err := s.client.TriageCase.Query().Limit(1).Count(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{"status": "unhealthy"})
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "healthy"})
}
