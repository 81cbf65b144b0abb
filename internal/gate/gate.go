package gate

import (
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"ecotag-platform/internal/auth"
	"ecotag-platform/internal/ratelimit"
	"ecotag-platform/internal/rbac"
	"ecotag-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Failure taxonomy for the gate. All of these are terminal for the request;
// nothing is retried.
var (
	ErrMissingCredential      = errors.New("gate: missing credential")
	ErrInvalidCredential      = errors.New("gate: invalid credential")
	ErrInsufficientRole       = errors.New("gate: insufficient role")
	ErrInsufficientPermission = errors.New("gate: insufficient permission")
)

// Cookie names for the two credential transports. The admin cookie carries
// the signed admin token; the user cookie is the lightweight product session.
const (
	AdminCookie = "admin_token"
	UserCookie  = "user_token"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

// Redirect reason tags, attached to the sign-in URL as ?error=<reason>.
const (
	reasonAdminRequired     = "admin_required"
	reasonInvalidAdminToken = "invalid_admin_token"
)

// Config controls route classification and redirect targets.
// Zero values get sensible defaults from withDefaults.
type Config struct {
	// PublicPrefixes bypass all checks. Bypass wins over admin
	// classification even when a prefix appears in both lists.
	PublicPrefixes []string

	// InternalPrefixes cover framework plumbing (e.g. "/_"). Also bypassed.
	InternalPrefixes []string

	// AdminPrefixes route into the admin check.
	AdminPrefixes []string

	SignInPath       string
	UnauthorizedPath string
	LandingPath      string

	// SecureCookies marks cleared cookies Secure; enable in production.
	SecureCookies bool

	Now func() time.Time
}

func (c Config) withDefaults() Config {
	out := c
	if len(out.PublicPrefixes) == 0 {
		out.PublicPrefixes = []string{
			"/signin", "/signout", "/unauthorized", "/welcome",
			"/healthz", "/onboarding", "/scan", "/assets", "/api",
		}
	}
	if len(out.InternalPrefixes) == 0 {
		out.InternalPrefixes = []string{"/_"}
	}
	if len(out.AdminPrefixes) == 0 {
		out.AdminPrefixes = []string{"/admin"}
	}
	if out.SignInPath == "" {
		out.SignInPath = "/signin"
	}
	if out.UnauthorizedPath == "" {
		out.UnauthorizedPath = "/unauthorized"
	}
	if out.LandingPath == "" {
		out.LandingPath = "/welcome"
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return out
}

// Middleware classifies every inbound request exactly once and enforces
// authentication, role, and per-route permission checks on admin paths.
//
// Decision order per request:
//  1. public prefix, static asset, or internal prefix -> allow untouched
//  2. admin prefix -> rate limit, token extract, verify, role check,
//     longest-prefix permission check, then forward identity downstream
//  3. anything else -> unauthenticated "/" redirects to the landing page,
//     the rest passes through
func Middleware(verifier *auth.Manager, routes *Requirements, limiter ratelimit.Limiter, cfg Config) gin.HandlerFunc {
	cfg = cfg.withDefaults()

	return func(c *gin.Context) {
		reqPath := c.Request.URL.Path

		// Public bypass takes priority over admin classification.
		if matchesAny(reqPath, cfg.PublicPrefixes) || matchesRaw(reqPath, cfg.InternalPrefixes) || isStaticAsset(reqPath) {
			c.Next()
			return
		}

		if matchesAny(reqPath, cfg.AdminPrefixes) {
			adminCheck(c, verifier, routes, limiter, cfg)
			return
		}

		userCheck(c, cfg)
	}
}

func adminCheck(c *gin.Context, verifier *auth.Manager, routes *Requirements, limiter ratelimit.Limiter, cfg Config) {
	log := logger.FromGin(c)
	reqPath := c.Request.URL.Path

	if limiter != nil {
		d, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			// A broken limiter backend must not take the admin portal down
			// with it; log and continue without counting.
			log.Error("rate limiter unavailable", "err", err)
		} else if !d.Allowed {
			c.Header("Retry-After", d.ResetAt.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limited"})
			return
		}
	}

	token := extractToken(c)
	if token == "" {
		redirectSignIn(c, cfg, reasonAdminRequired, reqPath)
		return
	}

	claims, err := verifier.Verify(token, cfg.Now())
	if err != nil {
		// Signature mismatch, malformed payload, and expiry all land here.
		// Clear both cookies so a stale credential cannot loop the client.
		log.Info("admin token rejected", "path", reqPath, "err", err)
		clearCookie(c, AdminCookie, cfg.SecureCookies)
		clearCookie(c, UserCookie, cfg.SecureCookies)
		redirectSignIn(c, cfg, reasonInvalidAdminToken, reqPath)
		return
	}

	if !rbac.IsAdminRole(claims.Role) {
		redirect(c, cfg.UnauthorizedPath)
		return
	}

	if perm, ok := routes.Resolve(reqPath); ok {
		if !rbac.HasPermission(claims.Permissions, perm) {
			log.Info("admin permission denied", "path", reqPath, "role", claims.Role, "required", perm)
			redirect(c, cfg.UnauthorizedPath)
			return
		}
	}

	// Forward identity so downstream handlers never re-verify the token.
	c.Request.Header.Set(HeaderAdminUserID, claims.UserID)
	c.Request.Header.Set(HeaderAdminRole, claims.Role)
	c.Request.Header.Set(HeaderAdminEmail, claims.Email)
	c.Request.Header.Set(HeaderAdminPermissions, EncodePermissions(claims.Permissions))

	ctx := auth.WithIdentity(c.Request.Context(), claims.UserID, claims.Email, claims.Role, claims.Permissions)
	c.Request = c.Request.WithContext(ctx)

	c.Next()
}

func userCheck(c *gin.Context, cfg Config) {
	if c.Request.URL.Path != "/" {
		c.Next()
		return
	}
	if _, err := c.Cookie(UserCookie); err == nil {
		c.Next()
		return
	}
	if _, err := c.Cookie(AdminCookie); err == nil {
		c.Next()
		return
	}
	redirect(c, cfg.LandingPath)
}

func extractToken(c *gin.Context) string {
	raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
	if strings.HasPrefix(raw, bearerPrefix) {
		if tok := strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix)); tok != "" {
			return tok
		}
	}
	if tok, err := c.Cookie(AdminCookie); err == nil {
		return tok
	}
	return ""
}

func redirectSignIn(c *gin.Context, cfg Config, reason, originalPath string) {
	q := url.Values{}
	q.Set("error", reason)
	q.Set("redirect", originalPath)
	redirect(c, cfg.SignInPath+"?"+q.Encode())
}

func redirect(c *gin.Context, target string) {
	c.Redirect(http.StatusFound, target)
	c.Abort()
}

func clearCookie(c *gin.Context, name string, secure bool) {
	c.SetCookie(name, "", -1, "/", "", secure, true)
}

func matchesAny(reqPath string, prefixes []string) bool {
	for _, p := range prefixes {
		if reqPath == p || strings.HasPrefix(reqPath, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}

// matchesRaw is byte-prefix matching, for framework plumbing like "/_".
func matchesRaw(reqPath string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(reqPath, p) {
			return true
		}
	}
	return false
}

func isStaticAsset(reqPath string) bool {
	return path.Ext(reqPath) != ""
}
