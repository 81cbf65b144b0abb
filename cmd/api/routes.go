package main

import (
	"ecotag-platform/internal/audit"
	"ecotag-platform/internal/auth"
	"ecotag-platform/internal/config"
	"ecotag-platform/internal/directory"
	"ecotag-platform/internal/gate"
	"ecotag-platform/internal/httpapi"
	"ecotag-platform/internal/ratelimit"
	"ecotag-platform/internal/rbac"
	"ecotag-platform/internal/rewards"

	"github.com/gin-gonic/gin"
)

type appDeps struct {
	Config    config.Config
	Roles     *rbac.Table
	Auth      *auth.Manager
	Limiter   ratelimit.Limiter
	Directory *directory.Service
	Rewards   *rewards.Service
	Audit     *audit.Service
}

// adminRouteRequirements is the ordered path-prefix -> permission table.
// Longest matching prefix wins, so "/admin/users/5" needs manage_users even
// though "/admin" alone only needs view_users.
func adminRouteRequirements() *gate.Requirements {
	return gate.NewRequirements(
		gate.Requirement{Prefix: "/admin", Permission: rbac.PermViewUsers},
		gate.Requirement{Prefix: "/admin/users", Permission: rbac.PermManageUsers},
		gate.Requirement{Prefix: "/admin/settings", Permission: rbac.PermManageSettings},
		gate.Requirement{Prefix: "/admin/analytics", Permission: rbac.PermViewAnalytics},
		gate.Requirement{Prefix: "/admin/fraud", Permission: rbac.PermInvestigateFraud},
		gate.Requirement{Prefix: "/admin/transactions", Permission: rbac.PermViewTransactions},
		gate.Requirement{Prefix: "/admin/audit", Permission: rbac.PermViewReports},
	)
}

// registerRoutes wires the gate and HTTP routes.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, deps appDeps) {
	r.Use(gate.Middleware(deps.Auth, adminRouteRequirements(), deps.Limiter, gate.Config{
		SecureCookies: deps.Config.IsProduction(),
	}))

	h := httpapi.Handlers{
		Auth:          deps.Auth,
		Directory:     deps.Directory,
		Rewards:       deps.Rewards,
		Audit:         deps.Audit,
		SecureCookies: deps.Config.IsProduction(),
	}

	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.POST("/signin", h.SignIn)
	r.POST("/signout", h.SignOut)

	api := r.Group("/api")
	{
		api.GET("/me", h.Me)
		api.POST("/scan", h.Scan)
		api.GET("/wallet", h.Wallet)
	}

	// ADMIN portal. Authentication, role, and per-prefix permission checks
	// all happen in the gate; handlers only read the forwarded identity.
	admin := r.Group("/admin")
	{
		admin.GET("/whoami", h.AdminWhoAmI)
		admin.GET("/users", h.AdminListUsers)
		admin.GET("/settings", h.AdminSettings)
		admin.GET("/analytics", h.AdminAnalytics)
		admin.GET("/fraud", h.AdminFraudQueue)
		admin.GET("/transactions", h.AdminTransactions)
		admin.GET("/audit", h.AdminAuditTrail)
	}
}
