package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
	"github.com/unrolled/secure"

	_ "github.com/aussiebroadwan/accounts/api/accounts" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	transport    httpx.TokenTransport
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store                store.Store
	AccountService       *service.AccountService
	ProfileService       *service.ProfileService
	PasswordResetService *service.PasswordResetService
}

func NewRouter(
	verifier jwtx.Verifier,
	transport httpx.TokenTransport,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
	production bool,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		transport:    transport,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	headers := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !production,
	})

	// Set default middleware chain, outermost first
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(),
		headers.Handler,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerPasswords()
	r.registerProfile()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Accounts Service API
//	@version		0.1.0
//	@description	User accounts: signup, login, logout, password change and reset, and profiles.
//	@description
//	@description				Successful responses are wrapped as {"status":"success","data":...} and errors as {"status":"error","error":{"message":...}}.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/accounts
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}". The httpOnly "token" cookie and the x-access-token header are also accepted.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) gate() *Gate {
	return &Gate{Accounts: r.AccountService}
}

func (r *Router) registerAccounts() {
	g := r.gate()

	// POST /signup - strict rate limit by IP (account creation)
	signup := &SignupHandler{AccountService: r.AccountService, Transport: r.transport}
	r.Mux.Handle("POST /signup",
		httpx.Chain(signup,
			httpx.RateLimitByIP(httpx.StrictLimit),
			g.VerifySignup,
		),
	)

	// POST /login - strict rate limit by IP + login identifier to slow brute force
	login := &LoginHandler{AccountService: r.AccountService, Transport: r.transport}
	r.Mux.Handle("POST /login",
		httpx.Chain(login,
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "usernameOrEmail"),
			g.VerifyLogin,
		),
	)

	// POST /logout - only needs a valid token
	logout := &LogoutHandler{Transport: r.transport}
	r.Mux.Handle("POST /logout",
		httpx.Chain(logout,
			httpx.Authenticate(r.verifier),
		),
	)
}

func (r *Router) registerPasswords() {
	g := r.gate()

	// POST /reset-password - change (oldPassword) or mail a link (email)
	reset := &ResetPasswordHandler{
		AccountService:       r.AccountService,
		PasswordResetService: r.PasswordResetService,
	}
	r.Mux.Handle("POST /reset-password",
		httpx.Chain(reset,
			httpx.RateLimitByIP(httpx.StrictLimit),
			httpx.Authenticate(r.verifier),
			g.VerifyPasswordReset,
		),
	)

	// POST /reset-password/confirm - redeem a mailed link, no session needed
	confirm := &ConfirmResetHandler{PasswordResetService: r.PasswordResetService}
	r.Mux.Handle("POST "+service.ResetConfirmPath,
		httpx.Chain(confirm,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerProfile() {
	g := r.gate()
	h := &ProfileHandler{ProfileService: r.ProfileService}

	r.Mux.Handle("GET /profile",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.Authenticate(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PUT /profile",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			httpx.Authenticate(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
			g.VerifyProfileUpdate,
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
