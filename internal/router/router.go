package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/aerotrip/miles-backoffice/internal/handler"    // import the handlers that implement business logic
	"github.com/aerotrip/miles-backoffice/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Operations that do not require an existing session: register, login
	// and the two refresh variants.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; refresh-access only issues a new
	// access token for an existing refresh token.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a refresh token in the body or a bearer access
	// token, so it does not sit behind the JWT middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "OPERATOR"))
	auth.GET("/me", a.Me)
}

// LedgerHandlers bundles the handlers registered by RegisterLedger so the
// call site in main stays readable.
type LedgerHandlers struct {
	Programs    *handler.ProgramHandler
	Clients     *handler.ClientHandler
	Accounts    *handler.AccountHandler
	Movements   *handler.MovementHandler
	Redemptions *handler.RedemptionHandler
	Quotations  *handler.QuotationHandler
	Dashboard   *handler.DashboardHandler
}

// RegisterLedger registers every ledger endpoint under /v1.  All routes
// require a valid JWT with the ADMIN or OPERATOR role; destructive
// routes additionally require ADMIN.  The optional cache middleware is
// applied to the derived display reads (balance, market value,
// dashboard) and the optional limiter to the whole group; either may be
// nil when Redis is unavailable.
func RegisterLedger(e *echo.Echo, h LedgerHandlers, jwtSecret string, cache, limiter echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN", "OPERATOR"),
	)
	if limiter != nil {
		g.Use(limiter)
	}
	admin := middleware.RequireRole("ADMIN")

	// ---- Titular directories ----
	g.POST("/clients", h.Clients.CreateClient)
	g.GET("/clients", h.Clients.ListClients)
	g.GET("/clients/:id", h.Clients.GetClient)
	g.POST("/managed-accounts", h.Clients.CreateManagedAccount)
	g.GET("/managed-accounts", h.Clients.ListManagedAccounts)
	g.GET("/managed-accounts/:id", h.Clients.GetManagedAccount)

	// ---- Programs ----
	g.POST("/programs", h.Programs.Create)
	g.GET("/programs", h.Programs.List)
	g.GET("/programs/:id", h.Programs.Get)
	g.PUT("/programs/:id", h.Programs.Update)
	g.PATCH("/programs/:id", h.Programs.Update)
	g.DELETE("/programs/:id", h.Programs.Delete, admin)

	// ---- Accounts ----
	g.POST("/accounts", h.Accounts.Create)
	g.GET("/accounts", h.Accounts.List)
	g.GET("/accounts/:id", h.Accounts.Get)
	g.PUT("/accounts/:id/club", h.Accounts.UpdateClub)
	g.DELETE("/accounts/:id", h.Accounts.Delete, admin)
	// Derived reads.  Balances are computed from the movement log at
	// request time; the cache only shaves repeated dashboard polling.
	g.GET("/accounts/:id/movements", h.Accounts.ListMovements)
	if cache != nil {
		g.GET("/accounts/:id/balance", h.Accounts.GetBalance, cache)
		g.GET("/accounts/:id/market-value", h.Accounts.GetMarketValue, cache)
		g.GET("/dashboard", h.Dashboard.Get, cache)
	} else {
		g.GET("/accounts/:id/balance", h.Accounts.GetBalance)
		g.GET("/accounts/:id/market-value", h.Accounts.GetMarketValue)
		g.GET("/dashboard", h.Dashboard.Get)
	}

	// ---- Movements ----
	g.POST("/movements", h.Movements.Create)
	g.GET("/movements/:id", h.Movements.Get)
	g.PUT("/movements/:id", h.Movements.Update)
	g.DELETE("/movements/:id", h.Movements.Delete, admin)
	g.POST("/transfers", h.Movements.Transfer)

	// ---- Redemptions ----
	g.POST("/redemptions", h.Redemptions.Create)
	g.GET("/redemptions", h.Redemptions.List)
	g.GET("/redemptions/:id", h.Redemptions.Get)
	g.PUT("/redemptions/:id", h.Redemptions.Update)
	g.DELETE("/redemptions/:id", h.Redemptions.Delete, admin)
	g.POST("/redemptions/:id/project", h.Redemptions.Project)

	// ---- Quotations ----
	g.POST("/quotations", h.Quotations.Create)
	g.GET("/quotations", h.Quotations.List)
	g.GET("/quotations/:id", h.Quotations.Get)
	g.PUT("/quotations/:id", h.Quotations.Update)
	g.DELETE("/quotations/:id", h.Quotations.Delete, admin)
}
