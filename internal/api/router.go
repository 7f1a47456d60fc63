package api

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/unrolled/secure"

	"github.com/innoshop/platform/internal/api/handler"
	"github.com/innoshop/platform/internal/api/middleware"
	"github.com/innoshop/platform/internal/core/domain"
	"github.com/innoshop/platform/internal/core/ports"
)

// ServerOptions are the settings shared by both services.
type ServerOptions struct {
	Log        zerolog.Logger
	Production bool
	// Metrics receives the HTTP request collectors. Nil means the default registerer.
	Metrics prometheus.Registerer
	Health  map[string]handler.HealthCheck
}

// AuthDeps wires the account service routes.
type AuthDeps struct {
	ServerOptions
	Accounts  ports.AccountService
	Validator ports.TokenValidator
	// LoginRateLimit caps login and forgot-password requests per client IP per minute.
	LoginRateLimit int
}

// ProductDeps wires the product service routes.
type ProductDeps struct {
	ServerOptions
	Products  ports.ProductService
	Validator ports.TokenValidator
}

func newEcho(opts ServerOptions, subsystem string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Log)
	e.Validator = handler.NewValidator()

	reg := opts.Metrics
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	headers := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !opts.Production,
	})

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLog(opts.Log))
	e.Use(echo.WrapMiddleware(headers.Handler))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  subsystem,
		Registerer: reg,
	}))

	// --- Health checks and tooling (no auth required) ---
	health := handler.NewHealthHandler(opts.Health)
	e.GET("/health", health.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", health.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	if !opts.Production {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	return e
}

// NewAuthRouter builds the Echo instance for the account service.
func NewAuthRouter(d AuthDeps) *echo.Echo {
	e := newEcho(d.ServerOptions, "auth")

	accounts := handler.NewAccountHandler(d.Accounts, !d.Production)
	requireAuth := middleware.Auth(d.Validator)
	limiter := echo.WrapMiddleware(httprate.Limit(d.LoginRateLimit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"too many requests"}` + "\n"))
		}),
	))

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/register", accounts.Register)
	auth.GET("/confirm-email", accounts.ConfirmEmail)
	auth.POST("/login", accounts.Login, limiter)
	auth.POST("/forgot-password", accounts.ForgotPassword, limiter)
	auth.POST("/reset-password", accounts.ResetPassword)

	// --- Account routes ---
	users := e.Group("/api/users", requireAuth)
	users.GET("/me", accounts.Me)
	users.PATCH("/me", accounts.UpdateMe)

	admin := middleware.RBAC(domain.RoleAdmin)
	users.GET("", accounts.List, admin)
	users.PATCH("/:id/status", accounts.SetStatus, admin)
	users.PUT("/:id/roles", accounts.AssignRole, admin)

	return e
}

// NewProductRouter builds the Echo instance for the product service.
func NewProductRouter(d ProductDeps) *echo.Echo {
	e := newEcho(d.ServerOptions, "product")

	products := handler.NewProductHandler(d.Products)
	requireAuth := middleware.Auth(d.Validator)

	g := e.Group("/api/products")
	g.GET("", products.List)
	g.GET("/:id", products.Get).Name = "products.get"
	g.POST("", products.Create, requireAuth)
	g.PUT("/:id", products.Update, requireAuth)
	g.DELETE("/:id", products.Delete, requireAuth)

	return e
}
