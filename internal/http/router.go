package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/geocoder89/accounthub/internal/http/handlers"
	"github.com/geocoder89/accounthub/internal/http/middlewares"
	"github.com/geocoder89/accounthub/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20

type AccountService interface {
	handlers.SignUpper
	handlers.UserReader
}

// RouterDeps wires the router. Prom and Metrics are optional; without them
// /metrics is not mounted. Ready lists the dependencies pinged by /readyz and
// ShuttingDown flips it to 503 once the server starts draining.
type RouterDeps struct {
	Log                *slog.Logger
	Env                string
	Accounts           AccountService
	Verifier           middlewares.TokenVerifier
	Prom               *observability.Prom
	Metrics            http.Handler
	Ready              map[string]handlers.Pinger
	ShuttingDown       func() bool
	CORSAllowedOrigins []string
	SignupRatePerMin   int
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("accounthub"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(deps.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORS(deps.CORSAllowedOrigins))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health
	h := handlers.NewHealthHandler(deps.Ready, deps.ShuttingDown)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	r.GET("/swagger", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	authMW := middlewares.NewAuthMiddleware(deps.Verifier)
	signupLimiter := middlewares.NewRateLimiter(deps.SignupRatePerMin, time.Minute)

	authHandler := handlers.NewAuthHandler(deps.Accounts)
	usersHandler := handlers.NewUsersHandler(deps.Accounts)

	api := r.Group("/api")

	api.POST("/auth/signup", signupLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.SignUp)

	users := api.Group("/users", authMW.RequireAuth())
	users.GET("/:id", usersHandler.GetUserByID)

	admin := users.Group("", authMW.RequireRole(user.RoleAdmin))
	admin.GET("", usersHandler.GetAllUsers)
	admin.GET("/role/:role", usersHandler.GetUsersByRole)
	admin.GET("/search", usersHandler.SearchByEmail)
	admin.GET("/search/complex", usersHandler.Search)

	return r
}
