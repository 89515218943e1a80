package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/signet/internal/auth/metrics"
	"github.com/aussiebroadwan/signet/internal/auth/service"
	"github.com/aussiebroadwan/signet/internal/auth/store"
	"github.com/aussiebroadwan/signet/pkg/httpx"
	"github.com/aussiebroadwan/signet/pkg/idx"
	"github.com/aussiebroadwan/signet/pkg/slogx"

	_ "github.com/aussiebroadwan/signet/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:generate swag init --generalInfo router.go --dir ./ --output ../../../api/auth --outputTypes go --packageName auth

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	metrics      *metrics.Metrics

	store store.Store
	kv    store.ExpiringKV

	AuthService *service.AuthService
	RateLimits  httpx.RateLimitProfiles
}

func NewRouter(
	st store.Store,
	kv store.ExpiringKV,
	buildVersion string,
	logger *slog.Logger,
	m *metrics.Metrics,
	ids *idx.Generator,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		metrics:      m,
		store:        st,
		kv:           kv,
		RateLimits:   httpx.DefaultRateLimitProfiles(),
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger, ids),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerUsers()
	r.registerEmailOTP()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpx.Chain(httpSwagger.Handler(),
		httpx.RateLimitByIP(r.RateLimits.Public),
	))
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Signet Authentication Service API
//	@version		0.1.0
//	@description	Username and password sign-up and sign-in issuing HMAC-signed session tokens,
//	@description	plus one-time codes that prove control of an email address.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/signet
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
//	@description				Session token from /user/sign-in. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// handle registers h under pattern with request metrics labelled by route.
func (r *Router) handle(pattern, route string, h http.Handler, mws ...httpx.Middleware) {
	r.Mux.Handle(pattern, r.metrics.Instrument(route, httpx.Chain(h, mws...)))
}

// limited counts rejections for route.
func (r *Router) limited(route string) httpx.RateLimitOption {
	return httpx.OnLimited(func(*http.Request) {
		r.metrics.RateLimitedTotal.WithLabelValues(route).Inc()
	})
}

func (r *Router) registerUsers() {
	h := &UserHandler{AuthService: r.AuthService, Metrics: r.metrics}

	// POST /user/sign-up - moderate rate limit by IP
	r.handle("POST /user/sign-up", "sign_up",
		http.HandlerFunc(h.HandleSignUp),
		httpx.RateLimitByIP(r.RateLimits.Moderate, r.limited("sign_up")),
	)

	// POST /user/sign-in - strict rate limit by IP + username to slow password guessing
	r.handle("POST /user/sign-in", "sign_in",
		http.HandlerFunc(h.HandleSignIn),
		httpx.RateLimitByIPAndJSONField(r.RateLimits.Strict, "username", r.limited("sign_in")),
	)
}

func (r *Router) registerEmailOTP() {
	h := &EmailOTPHandler{AuthService: r.AuthService, Metrics: r.metrics}

	// Codes are short, so both endpoints are limited per IP + address.
	r.handle("POST /user/email/otp", "otp_request",
		http.HandlerFunc(h.HandleRequest),
		httpx.RateLimitByIPAndJSONField(r.RateLimits.Moderate, "email", r.limited("otp_request")),
		httpx.RequireBearer(),
	)
	r.handle("POST /user/email/otp/verify", "otp_verify",
		http.HandlerFunc(h.HandleVerify),
		httpx.RateLimitByIPAndJSONField(r.RateLimits.Moderate, "email", r.limited("otp_verify")),
		httpx.RequireBearer(),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - public rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /{$}",
		httpx.Chain(HealthHandler(),
			httpx.RateLimitByIP(r.RateLimits.Public),
		),
	)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.RateLimits.Public),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.kv),
			httpx.RateLimitByIP(r.RateLimits.Public),
		),
	)
	r.Mux.Handle("GET /metrics", r.metrics.Handler())
}
