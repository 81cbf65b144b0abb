package gate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"ecotag-platform/internal/auth"
	"ecotag-platform/internal/config"
	"ecotag-platform/internal/ratelimit"
	"ecotag-platform/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var testNow = time.Unix(1700000000, 0).UTC()

func testManager(t *testing.T) *auth.Manager {
	t.Helper()
	m, err := auth.NewManager(config.AuthConfig{JWTSecret: "secret", AdminTokenTTL: 24 * time.Hour}, rbac.NewTable())
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func testRequirements() *Requirements {
	return NewRequirements(
		Requirement{Prefix: "/admin", Permission: rbac.PermViewUsers},
		Requirement{Prefix: "/admin/users", Permission: rbac.PermManageUsers},
		Requirement{Prefix: "/admin/settings", Permission: rbac.PermManageSettings},
	)
}

func testEngine(t *testing.T, m *auth.Manager, limiter ratelimit.Limiter, cfg Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return testNow }
	}
	r := gin.New()
	r.Use(Middleware(m, testRequirements(), limiter, cfg))
	r.NoRoute(func(c *gin.Context) {
		c.JSON(200, gin.H{
			"path": c.Request.URL.Path,
			"role": c.Request.Header.Get(HeaderAdminRole),
		})
	})
	return r
}

func issue(t *testing.T, m *auth.Manager, email, role string) string {
	t.Helper()
	tok, err := m.Issue(testNow, auth.Identity{ID: "u-" + role, Email: email, Role: role})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}

func get(r *gin.Engine, path string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, f := range mutate {
		f(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func withBearer(tok string) func(*http.Request) {
	return func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+tok) }
}

func withCookie(name, val string) func(*http.Request) {
	return func(req *http.Request) { req.AddCookie(&http.Cookie{Name: name, Value: val}) }
}

func location(t *testing.T, w *httptest.ResponseRecorder) *url.URL {
	t.Helper()
	loc := w.Header().Get("Location")
	if loc == "" {
		t.Fatalf("expected a redirect, got status %d", w.Code)
	}
	u, err := url.Parse(loc)
	if err != nil {
		t.Fatalf("bad location %q: %v", loc, err)
	}
	return u
}

func TestGate_MissingTokenRedirectsToSignIn(t *testing.T) {
	r := testEngine(t, testManager(t), nil, Config{})

	w := get(r, "/admin")
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	u := location(t, w)
	if u.Path != "/signin" {
		t.Fatalf("expected /signin, got %q", u.Path)
	}
	q := u.Query()
	if q.Get("error") != "admin_required" || q.Get("redirect") != "/admin" {
		t.Fatalf("unexpected query: %v", q)
	}
}

func TestGate_SuperAdminAllowedWithForwardedHeaders(t *testing.T) {
	m := testManager(t)
	r := testEngine(t, m, nil, Config{})

	var gotRole, gotEmail, gotPermsRaw string
	var ctxRole string
	r.GET("/admin/settings", func(c *gin.Context) {
		gotRole = c.Request.Header.Get(HeaderAdminRole)
		gotEmail = c.Request.Header.Get(HeaderAdminEmail)
		gotPermsRaw = c.Request.Header.Get(HeaderAdminPermissions)
		ctxRole, _ = auth.Role(c.Request.Context())
		c.Status(200)
	})

	tok := issue(t, m, "admin@example.com", rbac.RoleSuperAdmin)
	w := get(r, "/admin/settings", withBearer(tok))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (location %q)", w.Code, w.Header().Get("Location"))
	}
	if gotRole != rbac.RoleSuperAdmin || ctxRole != rbac.RoleSuperAdmin {
		t.Fatalf("role not forwarded: header=%q ctx=%q", gotRole, ctxRole)
	}
	if gotEmail != "admin@example.com" {
		t.Fatalf("email not forwarded: %q", gotEmail)
	}
	perms := DecodePermissions(gotPermsRaw)
	if !rbac.HasPermission(perms, rbac.PermSystemAdmin) {
		t.Fatalf("forwarded permissions missing system_admin: %v", perms)
	}
}

func TestGate_AnalystDeniedManageUsers(t *testing.T) {
	m := testManager(t)
	r := testEngine(t, m, nil, Config{})

	tok := issue(t, m, "analyst@example.com", rbac.RoleAnalyst)
	w := get(r, "/admin/users", withBearer(tok))
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if u := location(t, w); u.Path != "/unauthorized" {
		t.Fatalf("expected /unauthorized, got %q", u.Path)
	}
}

func TestGate_AnalystAllowedViewRoutes(t *testing.T) {
	m := testManager(t)
	r := testEngine(t, m, nil, Config{})

	tok := issue(t, m, "analyst@example.com", rbac.RoleAnalyst)
	w := get(r, "/admin/reports", withCookie(AdminCookie, tok))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 via cookie transport, got %d", w.Code)
	}
}

func TestGate_ExpiredTokenClearsBothCookies(t *testing.T) {
	m := testManager(t)
	r := testEngine(t, m, nil, Config{Now: func() time.Time { return testNow.Add(25 * time.Hour) }})

	tok := issue(t, m, "admin@example.com", rbac.RoleSuperAdmin) // expires 24h after testNow
	w := get(r, "/admin", withCookie(AdminCookie, tok))
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	u := location(t, w)
	if u.Path != "/signin" || u.Query().Get("error") != "invalid_admin_token" {
		t.Fatalf("unexpected redirect %q", w.Header().Get("Location"))
	}

	cleared := map[string]bool{}
	for _, sc := range w.Result().Cookies() {
		if sc.MaxAge < 0 && sc.Value == "" {
			cleared[sc.Name] = true
		}
	}
	if !cleared[AdminCookie] || !cleared[UserCookie] {
		t.Fatalf("expected both cookies cleared, got %v", cleared)
	}
}

func TestGate_TamperedTokenRejected(t *testing.T) {
	m := testManager(t)
	r := testEngine(t, m, nil, Config{})

	tok := issue(t, m, "admin@example.com", rbac.RoleSuperAdmin)
	bad := tok[:len(tok)-2] + "xx"
	if bad == tok {
		bad = tok[:len(tok)-2] + "yy"
	}
	w := get(r, "/admin", withBearer(bad))
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if u := location(t, w); u.Query().Get("error") != "invalid_admin_token" {
		t.Fatalf("unexpected redirect %q", w.Header().Get("Location"))
	}
}

func TestGate_NonAdminRoleRedirectsUnauthorized(t *testing.T) {
	// The issuer refuses unknown roles, so forge a correctly signed token
	// carrying one; the gate's role check must still turn it away.
	m := testManager(t)
	r := testEngine(t, m, nil, Config{})

	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(testNow),
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		},
		UserID:      "u-1",
		Email:       "user@example.com",
		Role:        "user",
		Permissions: []string{},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	w := get(r, "/admin", withBearer(tok))
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if u := location(t, w); u.Path != "/unauthorized" {
		t.Fatalf("expected /unauthorized, got %q", u.Path)
	}
}

func TestGate_PublicBypassWinsOverAdminPrefix(t *testing.T) {
	m := testManager(t)
	// Misconfiguration test: /admin listed as public AND admin.
	cfg := Config{
		PublicPrefixes: []string{"/signin", "/admin"},
		AdminPrefixes:  []string{"/admin"},
	}
	r := testEngine(t, m, nil, cfg)

	w := get(r, "/admin") // no token at all
	if w.Code != http.StatusOK {
		t.Fatalf("public bypass must win over admin classification, got %d", w.Code)
	}
}

func TestGate_StaticAssetsAndInternalBypass(t *testing.T) {
	r := testEngine(t, testManager(t), nil, Config{})

	for _, p := range []string{"/logo.svg", "/_next/chunk", "/assets/app.css", "/healthz"} {
		w := get(r, p)
		if w.Code != http.StatusOK {
			t.Fatalf("expected bypass for %q, got %d", p, w.Code)
		}
	}
}

func TestGate_RootRedirectsToLandingWithoutSession(t *testing.T) {
	r := testEngine(t, testManager(t), nil, Config{})

	w := get(r, "/")
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302 for anonymous root, got %d", w.Code)
	}
	if u := location(t, w); u.Path != "/welcome" {
		t.Fatalf("expected /welcome, got %q", u.Path)
	}

	w = get(r, "/", withCookie(UserCookie, "session"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for root with user session, got %d", w.Code)
	}

	w = get(r, "/wallet")
	if w.Code != http.StatusOK {
		t.Fatalf("non-root user paths pass through, got %d", w.Code)
	}
}

func TestGate_RateLimiterEnforced(t *testing.T) {
	m := testManager(t)
	limiter := ratelimit.NewMemoryLimiter(2, time.Minute)
	r := testEngine(t, m, limiter, Config{})

	tok := issue(t, m, "admin@example.com", rbac.RoleSuperAdmin)
	for i := 0; i < 2; i++ {
		if w := get(r, "/admin", withBearer(tok)); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
	w := get(r, "/admin", withBearer(tok))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over the limit, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestGate_RateLimitDoesNotThrottlePublicPaths(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(1, time.Minute)
	r := testEngine(t, testManager(t), limiter, Config{})

	for i := 0; i < 5; i++ {
		if w := get(r, "/healthz"); w.Code != http.StatusOK {
			t.Fatalf("public path must not be rate limited, got %d", w.Code)
		}
	}
}

func TestGate_LimiterBackendFailureFailsOpen(t *testing.T) {
	m := testManager(t)
	r := testEngine(t, m, brokenLimiter{}, Config{})

	tok := issue(t, m, "admin@example.com", rbac.RoleSuperAdmin)
	if w := get(r, "/admin", withBearer(tok)); w.Code != http.StatusOK {
		t.Fatalf("limiter backend failure must not block admins, got %d", w.Code)
	}
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, ratelimit.ErrDenied
}

func TestGate_BearerHeaderWinsOverCookie(t *testing.T) {
	m := testManager(t)
	r := testEngine(t, m, nil, Config{})

	good := issue(t, m, "admin@example.com", rbac.RoleSuperAdmin)
	w := get(r, "/admin",
		withBearer(good),
		withCookie(AdminCookie, "stale-garbage"),
	)
	if w.Code != http.StatusOK {
		t.Fatalf("header transport takes priority over cookie, got %d", w.Code)
	}
}

func TestGate_RedirectPreservesOriginalPath(t *testing.T) {
	r := testEngine(t, testManager(t), nil, Config{})

	w := get(r, "/admin/users/5")
	u := location(t, w)
	if got := u.Query().Get("redirect"); got != "/admin/users/5" {
		t.Fatalf("redirect target should carry the original path, got %q", got)
	}
}

func TestDecodePermissions_FailsClosed(t *testing.T) {
	for _, raw := range []string{"", "not-json", `{"a":1}`, "null"} {
		if got := DecodePermissions(raw); len(got) != 0 {
			t.Fatalf("%q should decode to empty set, got %v", raw, got)
		}
	}
	got := DecodePermissions(`["view_users","manage_users"]`)
	if len(got) != 2 || got[0] != "view_users" {
		t.Fatalf("valid header mis-decoded: %v", got)
	}
}

func TestEncodePermissions_RoundTrip(t *testing.T) {
	in := []string{"view_users", "export_data"}
	out := DecodePermissions(EncodePermissions(in))
	if strings.Join(out, ",") != strings.Join(in, ",") {
		t.Fatalf("round trip mismatch: %v vs %v", in, out)
	}
	if EncodePermissions(nil) != "[]" {
		t.Fatalf("nil set must encode as empty array")
	}
}
