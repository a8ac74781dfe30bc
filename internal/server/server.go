// Package server wires the repositories, services and handlers into a chi
// router and runs the HTTP server with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/auctions/internal/auth"
	"github.com/sakif/auctions/internal/config"
	"github.com/sakif/auctions/internal/handler"
	"github.com/sakif/auctions/internal/middleware"
	"github.com/sakif/auctions/internal/repository/sqlite"
	"github.com/sakif/auctions/internal/service"
)

// Server owns the database for its whole lifetime; Close (or the end of
// Start) closes it.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqlite.DB
}

func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Close() error {
	return s.db.Close()
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	tokens, err := auth.NewTokenService(s.config.Auth.JWTSecret, s.config.Auth.TokenTTL)
	if err != nil {
		return err
	}

	authService := service.NewAuthService(s.db, tokens, auth.NewPasswordService(s.config.Auth.BcryptCost), s.logger)
	listingService := service.NewListingService(s.db, s.db, s.db, s.db, s.db, s.logger)
	watchlistService := service.NewWatchlistService(s.db, s.db, s.logger)
	commentService := service.NewCommentService(s.db, s.db, s.db, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHub.Enabled() {
		github = auth.NewGitHubProvider(
			s.config.GitHub.ClientID,
			s.config.GitHub.ClientSecret,
			s.config.GitHub.CallbackURL,
		)
	}

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	listingHandler := handler.NewListingHandler(listingService, s.logger)
	commentHandler := handler.NewCommentHandler(commentService, s.logger)
	watchlistHandler := handler.NewWatchlistHandler(watchlistService, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	s.router.Route("/api", func(r chi.Router) {
		// Public reads.
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/listings", listingHandler.HandleList)
			r.Get("/listings/{id}", listingHandler.HandleGet)
			r.Get("/listings/{id}/bids", listingHandler.HandleListBids)
			r.Get("/listings/{id}/comments", commentHandler.HandleList)
			r.Get("/categories", listingHandler.HandleCategories)
			r.Get("/categories/{code}/listings", listingHandler.HandleListByCategory)
		})

		// Everything that acts as a user.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.HandleMe)
			r.Post("/listings", listingHandler.HandleCreate)
			r.Post("/listings/{id}/bids", listingHandler.HandlePlaceBid)
			r.Post("/listings/{id}/close", listingHandler.HandleClose)
			r.Post("/listings/{id}/comments", commentHandler.HandleAdd)
			r.Put("/listings/{id}/watchlist", watchlistHandler.HandleToggle)
			r.Get("/watchlist", watchlistHandler.HandleList)
		})
	})

	s.logger.Debug("routes registered", slog.Bool("github", github != nil))
	return nil
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds. The database is closed on return.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("database", s.config.Database.Path),
			slog.Bool("githubSignIn", s.config.GitHub.Enabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
