package router

import (
	"github.com/clientms/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// RouteRegistrar registers a set of routes on a versioned API group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router collects registrars and mounts them under /api/<version>
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g. "v1")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be mounted on Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Use adds middleware applied to the versioned API group only
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.middleware = append(r.middleware, middleware...)
	return r
}

// Setup mounts all registered routes on the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	if len(r.middleware) > 0 {
		api.Use(r.middleware...)
	}
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// AuthRoutes mounts the authentication endpoints
type AuthRoutes struct {
	handler *handler.AuthHandler
}

// NewAuthRoutes creates the auth route registrar
func NewAuthRoutes(h *handler.AuthHandler) *AuthRoutes {
	return &AuthRoutes{handler: h}
}

// RegisterRoutes implements RouteRegistrar
func (r *AuthRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	auth.POST("/login", r.handler.Login)
	auth.POST("/refresh", r.handler.RefreshToken)
	auth.POST("/logout", r.handler.Logout)
	auth.GET("/me", r.handler.GetCurrentUser)
	auth.PUT("/password", r.handler.ChangePassword)
}

// LedgerRoutes mounts the client ledger endpoints
type LedgerRoutes struct {
	clients  *handler.ClientHandler
	payments *handler.PaymentHandler
	summary  *handler.SummaryHandler
}

// NewLedgerRoutes creates the ledger route registrar
func NewLedgerRoutes(clients *handler.ClientHandler, payments *handler.PaymentHandler, summary *handler.SummaryHandler) *LedgerRoutes {
	return &LedgerRoutes{
		clients:  clients,
		payments: payments,
		summary:  summary,
	}
}

// RegisterRoutes implements RouteRegistrar
func (r *LedgerRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	ledger := rg.Group("/ledger")
	ledger.POST("/clients", r.clients.Create)
	ledger.GET("/clients", r.clients.List)
	ledger.GET("/clients/:id", r.clients.GetByID)
	ledger.POST("/payments", r.payments.Record)
	ledger.GET("/summary", r.summary.Get)
}

// SystemRoutes mounts liveness endpoints. Health lives at the engine root so
// load balancers can probe it without the API prefix.
type SystemRoutes struct {
	handler *handler.SystemHandler
	engine  *gin.Engine
}

// NewSystemRoutes creates the system route registrar
func NewSystemRoutes(h *handler.SystemHandler, engine *gin.Engine) *SystemRoutes {
	return &SystemRoutes{handler: h, engine: engine}
}

// RegisterRoutes implements RouteRegistrar
func (r *SystemRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ping", r.handler.Ping)
	r.engine.GET("/health", r.handler.Health)
}
