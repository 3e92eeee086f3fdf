package server

import (
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"study-planner-lite/internal/account"
	"study-planner-lite/internal/config"
	"study-planner-lite/internal/handler"
	"study-planner-lite/internal/hub"
	"study-planner-lite/internal/middleware"
	"study-planner-lite/internal/store"
)

type Deps struct {
	Config   config.Config
	Loader   *config.Loader
	Store    *store.Store
	Accounts *account.Service
	Hub      *hub.Hub
	Logger   zerolog.Logger
	// AuthLimiter defaults to Config.AuthRateLimit requests per minute.
	AuthLimiter *middleware.RateLimiter
}

func secureCookies(cfg config.Config) bool {
	return cfg.Env == config.EnvProd || (cfg.TLSCertFile != "" && cfg.TLSKeyFile != "")
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Hub == nil {
		deps.Hub = hub.New()
	}
	secure := secureCookies(deps.Config)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(), middleware.AccessLog(deps.Logger))
	r.Use(middleware.Credentials())

	status := &handler.StatusHandler{Loader: deps.Loader}
	r.GET("/health", status.Health)

	api := r.Group("/api")
	api.Use(middleware.OptionalSession(deps.Accounts, secure))
	api.GET("/config/status", status.ConfigStatus)

	events := &handler.EventHandler{Store: deps.Store, Hub: deps.Hub}
	api.GET("/events", events.List)
	api.POST("/events", events.Save)
	api.DELETE("/events/:id", events.Delete)

	todos := &handler.TodoHandler{Store: deps.Store, Hub: deps.Hub}
	api.GET("/todos", todos.List)
	api.POST("/todos", todos.Save)
	api.DELETE("/todos/:id", todos.Delete)
	api.PATCH("/todos/:id/completion", todos.SetCompleted)

	limiter := deps.AuthLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(deps.Config.AuthRateLimit, time.Minute)
	}
	authHandler := &handler.AuthHandler{Accounts: deps.Accounts, SecureCookies: secure}
	authGroup := api.Group("/auth")
	authGroup.GET("/session", authHandler.Session)
	authGroup.GET("/user", authHandler.User)
	authGroup.GET("/profile", authHandler.Profile)
	limited := authGroup.Group("", middleware.RateLimitMiddleware(limiter))
	limited.POST("/signup", authHandler.SignUp)
	limited.POST("/signin", authHandler.SignIn)
	limited.POST("/signout", authHandler.SignOut)
	limited.POST("/reset-password", authHandler.ResetPassword)

	guard := middleware.RequireSession(deps.Accounts, deps.Config.LoginPath, secure)
	changes := &handler.ChangesHandler{Hub: deps.Hub}
	api.GET("/changes", guard, changes.Serve)

	r.GET("/app/*filepath", guard, staticFiles(deps.Config.StaticDir, nil))
	// Paths like //app/x or /app/../app/x miss the route above but still
	// resolve under /app once cleaned.
	r.NoRoute(staticFiles(deps.Config.StaticDir, guard))

	return r
}

// staticFiles serves dir for GET and HEAD requests and 404s everything
// else, including unknown /api paths. When guard is set it runs first for
// every path that cleans to the protected /app tree.
func staticFiles(dir string, guard gin.HandlerFunc) gin.HandlerFunc {
	fs := http.FileServer(http.Dir(dir))
	return func(c *gin.Context) {
		p := path.Clean("/" + c.Request.URL.Path)
		if strings.HasPrefix(p, "/api/") || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		if guard != nil && isAppPath(p) {
			guard(c)
			if c.IsAborted() {
				return
			}
		}
		fs.ServeHTTP(c.Writer, c.Request)
	}
}

func isAppPath(cleaned string) bool {
	return cleaned == "/app" || strings.HasPrefix(cleaned, "/app/")
}
