package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/skyfleethq/identity/internal/identity/service"
	"github.com/skyfleethq/identity/internal/identity/store"
	"github.com/skyfleethq/identity/pkg/httpx"
	"github.com/skyfleethq/identity/pkg/slogx"

	_ "github.com/skyfleethq/identity/api/identity" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store
	cache CachePinger

	AuthService  *service.AuthService
	TokenService *service.TokenService
	ResetService *service.PasswordResetService
	MFAService   *service.MFAService
	RBACService  *service.RBACService
	UserService  *service.UserService
}

func NewRouter(buildVersion string, st store.Store, cache CachePinger, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		cache:        cache,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerOAuth()
	r.registerMFA()
	r.registerUsers()
	r.registerRBAC()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			SkyFleet Identity Service API
//	@version		0.1.0
//	@description	Identity and access control for the SkyFleet platform: credential login with
//	@description	optional TOTP MFA, HS256 JWT token pairs, password-reset lifecycle, role-based
//	@description	access control, and OAuth identity linking.
//
//	@contact.name				SkyFleet Platform Team
//	@contact.url				https://github.com/skyfleethq/identity
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		AuthService:  r.AuthService,
		ResetService: r.ResetService,
	}

	// Credential-bearing endpoints get the strict per-IP limit.
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/mfa",
		httpx.Chain(http.HandlerFunc(h.HandleMFALogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgotPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/reset-password",
		httpx.Chain(http.HandlerFunc(h.HandleResetPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerOAuth() {
	h := &OAuthHandler{AuthService: r.AuthService}

	r.Mux.Handle("POST /v1/oauth/{provider}/callback",
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFAService: r.MFAService}

	r.Mux.Handle("POST /v1/mfa/setup",
		httpx.Chain(http.HandlerFunc(h.HandleSetup),
			httpx.AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// Code submission endpoints get the strict per-user limit.
	r.Mux.Handle("POST /v1/mfa/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/mfa",
		httpx.Chain(http.HandlerFunc(h.HandleDisable),
			httpx.AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/mfa/challenge",
		httpx.Chain(http.HandlerFunc(h.HandleStartChallenge),
			httpx.AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/mfa/challenge/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyChallenge),
			httpx.AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UserHandler{
		UserService: r.UserService,
		RBACService: r.RBACService,
	}

	r.Mux.Handle("GET /v1/userinfo",
		httpx.Chain(http.HandlerFunc(h.HandleUserInfo),
			httpx.AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /v1/users/password",
		httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
			httpx.AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/users/me",
		httpx.Chain(http.HandlerFunc(h.HandleDeleteAccount),
			httpx.AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/users/me/linked-accounts",
		httpx.Chain(http.HandlerFunc(h.HandleLinkedAccounts),
			httpx.AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerRBAC() {
	h := &RBACHandler{RBACService: r.RBACService}

	write := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.TokenService),
			httpx.RequirePermission(r.RBACService, "iam", "write"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}
	read := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.TokenService),
			httpx.RequirePermission(r.RBACService, "iam", "read"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("POST /v1/roles", write(h.HandleCreateRole))
	r.Mux.Handle("GET /v1/roles", read(h.HandleListRoles))
	r.Mux.Handle("DELETE /v1/roles/{id}", write(h.HandleDeleteRole))

	r.Mux.Handle("POST /v1/permissions", write(h.HandleCreatePermission))
	r.Mux.Handle("GET /v1/permissions", read(h.HandleListPermissions))
	r.Mux.Handle("DELETE /v1/permissions/{id}", write(h.HandleDeletePermission))

	r.Mux.Handle("PUT /v1/roles/{id}/permissions/{permissionID}", write(h.HandleAttachPermission))
	r.Mux.Handle("DELETE /v1/roles/{id}/permissions/{permissionID}", write(h.HandleDetachPermission))
	r.Mux.Handle("GET /v1/roles/{id}/permissions", read(h.HandleListRolePermissions))

	r.Mux.Handle("PUT /v1/users/{id}/roles/{roleID}", write(h.HandleAssignRole))
	r.Mux.Handle("DELETE /v1/users/{id}/roles/{roleID}", write(h.HandleRemoveRole))
	r.Mux.Handle("GET /v1/users/{id}/permissions", read(h.HandleListUserPermissions))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.cache),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
