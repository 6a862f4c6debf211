package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jcervantes/blogapi/internal/auth"
	"github.com/jcervantes/blogapi/internal/cache"
	"github.com/jcervantes/blogapi/internal/config"
	"github.com/jcervantes/blogapi/internal/domain/user"
	"github.com/jcervantes/blogapi/internal/http/handlers"
	"github.com/jcervantes/blogapi/internal/http/middlewares"
	"github.com/jcervantes/blogapi/internal/observability"
)

// UsersStore is everything the auth flow needs from the user store.
type UsersStore interface {
	Create(ctx context.Context, email, passwordHash, name string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type Deps struct {
	Users   UsersStore
	Authors interface {
		handlers.AuthorsStore
		handlers.AuthorResolver
	}
	Posts   handlers.PostsStore
	Cache   cache.Store
	Metrics *observability.Prom
	Checks  map[string]func() error
	Tracing bool
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(middlewares.RequireJSON())

	if deps.Tracing {
		r.Use(otelgin.Middleware("blogapi"))
	}

	if deps.Metrics != nil {
		r.Use(deps.Metrics.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// The limiter sits before the auth middleware, so no user id exists yet;
	// key by IP here. KeyByUserOrIP is for limiters mounted behind RequireAuth.
	limiter := middlewares.NewRateLimiter(cfg.RateLimit, time.Duration(cfg.RateWindowSeconds)*time.Second)
	r.Use(limiter.RateLimiterMiddleware(middlewares.KeyByIP))

	// auth plumbing: explicit construction, no global strategy registry

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())
	authMw := middlewares.NewAuthMiddleware(jwtManager, deps.Users)

	// handlers

	healthHandler := handlers.NewHealthHandler(deps.Checks)
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Users, jwtManager)
	postsHandler := handlers.NewPostsHandler(deps.Posts, deps.Authors, deps.Cache, cfg.ProtectWrites)
	authorsHandler := handlers.NewAuthorsHandler(deps.Authors, deps.Cache)

	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)

	r.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "Welcome to the Blog Posts API"})
	})

	api := r.Group("/api")
	api.POST("/signup", authHandler.SignUp)
	api.POST("/login", authHandler.Login)
	api.GET("/profile", authMw.RequireAuth(), authHandler.Profile)

	r.GET("/posts", postsHandler.ListPosts)
	r.GET("/posts/:id", postsHandler.GetPostByID)
	r.GET("/authors", authorsHandler.ListAuthors)

	// Write routes sit behind the bearer gate only when ProtectWrites is on;
	// the public variant keeps the surface where POST /posts validates
	// authorId itself.
	if cfg.ProtectWrites {
		r.POST("/posts", authMw.RequireAuth(), postsHandler.CreatePost)
		r.POST("/authors", authMw.RequireAuth(), authorsHandler.CreateAuthor)
	} else {
		r.POST("/posts", postsHandler.CreatePost)
		r.POST("/authors", authorsHandler.CreateAuthor)
	}

	// Delete has always been open; AUTH_PROTECT_DELETE exists so product can
	// close it without a code change.
	if cfg.ProtectDelete {
		r.DELETE("/posts/:id", authMw.RequireAuth(), postsHandler.DeletePost)
	} else {
		r.DELETE("/posts/:id", postsHandler.DeletePost)
	}

	return r
}
