package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"query-server/auth"
	"query-server/cache"
	"query-server/confs"
	"query-server/entities"
	"query-server/handlers"
	httpHandler "query-server/handlers/http"
	"query-server/repositories"
	"query-server/services"
	"query-server/usecases"
	"query-server/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Server struct {
	app    *gin.Engine
	cfg    *confs.Config
	router *repositories.Router

	issuer     *auth.Issuer
	cache      *cache.HistoryCache
	manager    *ws.Manager
	maintainer *services.Maintainer
	authUC     *usecases.AuthUseCase
	logger     *slog.Logger
}

// NewServer wires every use case and handler over router. Routes are ready
// to serve once it returns.
func NewServer(cfg *confs.Config, router *repositories.Router) *Server {
	s := &Server{
		app:     gin.Default(),
		cfg:     cfg,
		router:  router,
		issuer:  auth.NewIssuer([]byte(cfg.JWTSecret)),
		cache:   cache.NewHistoryCache(cfg.CacheTTL),
		manager: ws.NewManager(),
		logger:  slog.Default().With("source", "server"),
	}
	s.maintainer = services.NewMaintainer(router, s.cache, s.manager, cfg.HistoryLimit, cfg.MaintenanceInterval)
	s.setupRoutes()
	return s
}

// Handler exposes the gin engine, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.app
}

func (s *Server) setupRoutes() {
	// Setup CORS middleware
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization"}
	s.app.Use(cors.New(config))

	// Setup healthcheck route
	s.app.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "OK",
			"modes": gin.H{
				"guest":         s.router.Available(entities.ModeGuest),
				"authenticated": s.router.Available(entities.ModeAuthenticated),
			},
		})
	})

	// Initialize use cases
	configUseCase := usecases.NewConfigUseCase(s.router, s.cfg.DefaultLanguage)
	historyUseCase := usecases.NewHistoryUseCase(s.router, configUseCase, s.cache, s.manager, s.cfg.HistoryLimit)
	qrUseCase := usecases.NewQRUseCase(services.NewQRCodec(), historyUseCase)
	s.authUC = usecases.NewAuthUseCase(s.router, s.issuer, s.cfg.TokenTTL, historyUseCase)

	// Initialize handlers
	authHandler := httpHandler.NewAuthHandler(s.authUC)
	historyHandler := httpHandler.NewHistoryHandler(historyUseCase)
	qrHandler := httpHandler.NewQRHandler(qrUseCase)
	configHandler := httpHandler.NewConfigHandler(configUseCase)
	i18nHandler := httpHandler.NewI18nHandler()
	wsHandler := handlers.NewWSHandler(s.manager)
	cacheHandler := handlers.NewCacheHandler(s.cache, s.maintainer)

	requireAuth := auth.RequireAuth(s.issuer)
	requireAccount := auth.RequireAccount()
	language := httpHandler.LanguageMiddleware(configUseCase, s.cfg.DefaultLanguage)

	// Setup API routes
	api := s.app.Group("/api/v1")
	public := api.Group("", language)
	private := api.Group("", requireAuth, language)
	{
		authPublic := public.Group("/auth")
		{
			authPublic.POST("/register", authHandler.Register)
			authPublic.POST("/login", authHandler.Login)
			authPublic.POST("/guest", authHandler.ContinueAsGuest)
			authPublic.POST("/reset-password", authHandler.ResetPassword)
		}
		authPrivate := private.Group("/auth")
		{
			authPrivate.GET("/me", authHandler.Me)
			authPrivate.DELETE("/me", authHandler.DeleteAccount)
		}

		// History routes
		history := private.Group("/history")
		{
			history.GET("", historyHandler.List)
			history.DELETE("", historyHandler.Clear)
			history.GET("/favorites", historyHandler.Favorites)
			history.GET("/:id", historyHandler.Get)
			history.DELETE("/:id", historyHandler.Delete)
			history.POST("/:id/favorite", historyHandler.ToggleFavorite)
			history.PUT("/:id/name", historyHandler.Rename)
		}

		// QR routes
		private.POST("/qr/generate", qrHandler.Generate)
		private.POST("/qr/scan", qrHandler.Scan)
		public.POST("/qr/render", qrHandler.Render) // stateless, writes no history

		// Config routes
		config := private.Group("/config")
		{
			config.GET("", configHandler.GetAll)
			config.DELETE("", configHandler.Reset)
			config.POST("/onboarding/complete", configHandler.CompleteOnboarding)
			config.GET("/:key", configHandler.Get)
			config.PUT("/:key", configHandler.Set)
		}

		// Translation tables
		public.GET("/i18n/languages", i18nHandler.Languages)
		public.GET("/i18n/:lang", i18nHandler.Catalog)

		// Cache and maintenance endpoints touch every owner, so anonymous
		// guests only get the read-only stats.
		private.GET("/cache/stats", cacheHandler.GetCacheStats)
		admin := private.Group("", requireAccount)
		{
			admin.POST("/cache/clear", cacheHandler.ClearCache)
			admin.POST("/maintenance/run", cacheHandler.RunMaintenance)
			admin.GET("/maintenance/last", cacheHandler.GetLastMaintenance)
			admin.GET("/ws/connections", wsHandler.GetConnections)
		}
	}

	s.app.GET("/ws", requireAuth, wsHandler.HandleHistoryWS)
}

// Start seeds the demo account when enabled, starts background maintenance
// and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.SeedDemoUser {
		if err := s.authUC.SeedDemoUser(); err != nil {
			s.logger.Warn("could not seed demo user", "error", err)
		}
	}
	s.maintainer.Start(ctx)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + s.cfg.Port,
		Handler:           s.app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
