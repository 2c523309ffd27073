package app

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

	"gravizot/internal/config"
	"gravizot/internal/database"
	"gravizot/internal/handler"
	"gravizot/internal/mail"
	"gravizot/internal/middleware"
	"gravizot/internal/repository"
	"gravizot/internal/router"
	"gravizot/internal/service"
	"gravizot/internal/session"
	"gravizot/internal/token"
)

type App struct {
	server *http.Server
	db     *database.DB
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	contactRepo := repository.NewContactRepository(pool)
	slog.Info("database ready")

	codec := token.NewCodec(cfg.JWTSecret, cfg.AccessTTL)
	refreshStore := service.NewRefreshStore(tokenRepo, cfg.RefreshTTL)
	authService := service.NewAuthService(userRepo, refreshStore, codec, cfg.BcryptCost)

	cookies := session.NewManager(cfg.CookieDomain, cfg.CookieSameSite, cfg.Production(), cfg.AccessTTL, cfg.CSRFTTL)
	authMiddleware := middleware.NewAuthMiddleware(authService)
	csrfMiddleware := middleware.NewCSRFMiddleware(cookies)

	var mailer mail.Mailer
	if cfg.MailEnabled {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	}
	contactService := service.NewContactService(contactRepo, mailer, cfg.ContactTo, cfg.ContactFrom, cfg.SiteName)

	appRouter := router.New(cfg, authMiddleware, csrfMiddleware, router.Handlers{
		Auth:    handler.NewAuthHandler(authService, cookies),
		User:    handler.NewUserHandler(authService),
		Contact: handler.NewContactHandler(contactService),
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{server: server, db: db}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.db.Close()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
