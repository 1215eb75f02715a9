// internal/server/server.go
// Assembles every collaborator into a running gin HTTP server: account
// store, identity, lease, persistence, and the gathering hall.

package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"tournament-core/internal/account"
	"tournament-core/internal/api"
	"tournament-core/internal/config"
	"tournament-core/internal/database"
	"tournament-core/internal/hall"
	"tournament-core/internal/identity"
	"tournament-core/internal/lease"
	"tournament-core/internal/middleware"
	"tournament-core/internal/persistence"
)

// Server wraps the HTTP server and every long-lived collaborator it
// depends on, so Shutdown can stop them in the right order.
type Server struct {
	cfg    *config.Config
	logger *log.Logger
	http   *http.Server

	db   *database.Connections
	hall *hall.Hall

	cancelBackground context.CancelFunc
}

// New wires the full collaborator graph and builds the gin router.
// It does not start accepting connections; call Start for that.
func New(cfg *config.Config, db *database.Connections, logger *log.Logger) *Server {
	accounts := account.NewStore(db.MySQL, cfg.Auth.BCryptCost)
	id := identity.New(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiration)
	leaseMgr := lease.New(db.Redis, logger, cfg.Gathering.LeaseTTL)
	store := persistence.NewStore(db.MongoDB)
	h := hall.New(store, leaseMgr, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	router := newRouter(cfg, logger, accounts, id, h, db.Redis)

	return &Server{
		cfg:    cfg,
		logger: logger,
		db:     db,
		hall:   h,
		http: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
		cancelBackground: cancel,
	}
}

func newRouter(cfg *config.Config, logger *log.Logger, accounts *account.Store, id *identity.Identity, h *hall.Hall, redisClient *redis.Client) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.External.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.RateLimiter(redisClient))

	router.GET("/health", api.HealthCheck(cfg))

	v1 := router.Group("/api/v1")
	{
		accountsGroup := v1.Group("/accounts")
		accountsGroup.POST("/register", api.HandleRegister(accounts))
		accountsGroup.POST("/login", api.HandleLogin(accounts, id))

		tournaments := v1.Group("/tournaments")
		tournaments.Use(middleware.RequireAuth(id))
		tournaments.POST("", api.HandleCreateTournament(h))
	}

	router.GET("/ws", api.HandleConnection(h, accounts, id, logger))

	return router
}

// Start begins serving HTTP requests, blocking until the server stops.
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests, stops the hall's background
// persistence loop (flushing once more on the way out), and closes every
// database connection.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return err
	}
	s.cancelBackground()
	s.db.Close()
	return nil
}
