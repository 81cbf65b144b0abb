package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ecotag-platform/internal/audit"
	"ecotag-platform/internal/auth"
	"ecotag-platform/internal/directory"
	"ecotag-platform/internal/gate"
	"ecotag-platform/internal/rewards"
	"ecotag-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth      *auth.Manager
	Directory *directory.Service
	Rewards   *rewards.Service
	Audit     *audit.Service

	// SecureCookies marks session cookies Secure; enable in production.
	SecureCookies bool
}

/* ===================== AUTH ===================== */

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn validates credentials against the admin directory and issues the
// admin token, delivered both as JSON and as the admin cookie.
func (h Handlers) SignIn(c *gin.Context) {
	if h.Auth == nil || h.Directory == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}

	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	now := time.Now()
	id, err := h.Directory.Authenticate(c.Request.Context(), req.Email, req.Password, now)
	if err != nil {
		if errors.Is(err, directory.ErrInvalidCredentials) {
			h.auditBestEffort(c, func() error {
				return h.Audit.LogSignInDenied(c.Request.Context(), req.Email, c.ClientIP())
			})
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		logger.FromGin(c).Error("sign-in failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sign-in failed"})
		return
	}

	token, err := h.Auth.Issue(now, id)
	if err != nil {
		logger.FromGin(c).Error("token issuance failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	h.auditBestEffort(c, func() error {
		return h.Audit.LogSignIn(c.Request.Context(), id.ID, id.Email, id.Role, c.ClientIP())
	})

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(gate.AdminCookie, token, int(h.Auth.TokenTTL().Seconds()), "/", "", h.SecureCookies, true)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": id.ID, "email": id.Email, "role": id.Role},
	})
}

// SignOut deletes both session cookies. There is no server-side revocation
// list; the credential simply ages out.
func (h Handlers) SignOut(c *gin.Context) {
	h.auditBestEffort(c, func() error {
		return h.Audit.LogSignOut(c.Request.Context(), c.ClientIP())
	})

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(gate.AdminCookie, "", -1, "/", "", h.SecureCookies, true)
	c.SetCookie(gate.UserCookie, "", -1, "/", "", h.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{"status": "signed_out"})
}

// Me verifies the caller's token directly and reports the decoded identity.
// Any verification failure is a plain 401; this endpoint sits on a public
// path and never goes through the admin gate.
func (h Handlers) Me(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}

	token := bearerOrCookie(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	claims, err := h.Auth.Verify(token, time.Now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":     claims.UserID,
		"email":       claims.Email,
		"role":        claims.Role,
		"permissions": claims.Permissions,
		"expires_at":  claims.ExpiresAt.Time,
	})
}

/* ===================== USER-FACING ===================== */

type scanRequest struct {
	ProductCode string `json:"product_code"`
}

// Scan records a QR scan for the current user session and reports the
// verdict plus any earned points.
func (h Handlers) Scan(c *gin.Context) {
	if h.Rewards == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "rewards not configured"})
		return
	}

	userID := userSession(c)
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session required"})
		return
	}

	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductCode == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "product_code required"})
		return
	}

	event, err := h.Rewards.RecordScan(c.Request.Context(), userID, req.ProductCode, time.Now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, event)
}

// Wallet reports the current session's derived reward balance.
func (h Handlers) Wallet(c *gin.Context) {
	if h.Rewards == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "rewards not configured"})
		return
	}

	userID := userSession(c)
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session required"})
		return
	}

	summary, err := h.Rewards.Wallet(c.Request.Context(), userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "wallet lookup failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

/* ===================== ADMIN PORTAL ===================== */

// Admin handlers trust the gate: identity arrives via request context and
// forwarded headers, and the per-route permission has already been checked.

func (h Handlers) AdminListUsers(c *gin.Context) {
	if h.Directory == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "directory not configured"})
		return
	}
	accts, err := h.Directory.ListAccounts(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "roster lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": accts})
}

func (h Handlers) AdminSettings(c *gin.Context) {
	role, _ := auth.Role(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"managed_by": role,
		"settings": gin.H{
			"points_per_scan_cap": 100,
			"fraud_auto_flag":     true,
			"maintenance_mode":    false,
		},
	})
}

func (h Handlers) AdminAnalytics(c *gin.Context) {
	if h.Rewards == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "rewards not configured"})
		return
	}
	txns, err := h.Rewards.Transactions(c.Request.Context(), "")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "analytics lookup failed"})
		return
	}
	var earned, redeemed int
	for _, t := range txns {
		switch t.Kind {
		case rewards.TxnKindEarn:
			earned += t.Points
		case rewards.TxnKindRedeem:
			redeemed += t.Points
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions":    len(txns),
		"points_earned":   earned,
		"points_redeemed": redeemed,
	})
}

func (h Handlers) AdminFraudQueue(c *gin.Context) {
	if h.Rewards == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "rewards not configured"})
		return
	}
	queue, err := h.Rewards.FraudQueue(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "fraud queue lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": queue})
}

func (h Handlers) AdminTransactions(c *gin.Context) {
	if h.Rewards == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "rewards not configured"})
		return
	}
	txns, err := h.Rewards.Transactions(c.Request.Context(), c.Query("user_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "transactions lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

// AdminAuditTrail returns recent admin activity, newest first.
func (h Handlers) AdminAuditTrail(c *gin.Context) {
	if h.Audit == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit not configured"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	events, err := h.Audit.Trail(c.Request.Context(), limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// AdminWhoAmI echoes the identity the gate forwarded, for portal debugging.
func (h Handlers) AdminWhoAmI(c *gin.Context) {
	userID, role, email, perms := gate.ForwardedIdentity(c.Request.Header)
	c.JSON(http.StatusOK, gin.H{
		"user_id":     userID,
		"role":        role,
		"email":       email,
		"permissions": perms,
	})
}

/* ===================== HELPERS ===================== */

// auditBestEffort runs an audit append when auditing is wired; failures are
// logged and never surfaced to the client.
func (h Handlers) auditBestEffort(c *gin.Context, fn func() error) {
	if h.Audit == nil {
		return
	}
	if err := fn(); err != nil {
		logger.FromGin(c).Error("audit append failed", "err", err)
	}
}

func bearerOrCookie(c *gin.Context) string {
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(raw, "Bearer ") {
		if tok := strings.TrimSpace(strings.TrimPrefix(raw, "Bearer ")); tok != "" {
			return tok
		}
	}
	if tok, err := c.Cookie(gate.AdminCookie); err == nil {
		return tok
	}
	return ""
}

func userSession(c *gin.Context) string {
	if v, err := c.Cookie(gate.UserCookie); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}
