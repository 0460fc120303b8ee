package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/frameup/internal/config"
	"github.com/ivankudzin/frameup/internal/infra/email"
	pgrepo "github.com/ivankudzin/frameup/internal/repo/postgres"
	redrepo "github.com/ivankudzin/frameup/internal/repo/redis"
	appealsvc "github.com/ivankudzin/frameup/internal/services/appeals"
	authsvc "github.com/ivankudzin/frameup/internal/services/auth"
	modsvc "github.com/ivankudzin/frameup/internal/services/moderation"
	notifysvc "github.com/ivankudzin/frameup/internal/services/notify"
	ratesvc "github.com/ivankudzin/frameup/internal/services/rate"
	reportsvc "github.com/ivankudzin/frameup/internal/services/reports"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	guardRepo := redrepo.NewReportGuardRepo(redisClient)

	campaignRepo := pgrepo.NewCampaignRepo(pool)
	userRepo := pgrepo.NewUserRepo(pool)
	summaryRepo := pgrepo.NewSummaryRepo(pool)
	appealRepo := pgrepo.NewAppealRepo(pool)
	warningRepo := pgrepo.NewWarningRepo(pool)
	adminLogRepo := pgrepo.NewAdminLogRepo(pool)
	notificationRepo := pgrepo.NewNotificationRepo(pool)

	emailSender := email.NewSender(email.Config{
		Addr:     cfg.SMTP.Addr,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	notifier := notifysvc.NewService(notificationRepo, emailSender, log)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, userRepo, log)

	reportLimiter := ratesvc.NewReportLimiter(guardRepo, cfg.Moderation.ReportsMaxPerHour, log)
	reportService := reportsvc.NewService(reportsvc.Dependencies{
		Pool:      pool,
		Campaigns: campaignRepo,
		Users:     userRepo,
		Summaries: summaryRepo,
		Limiter:   reportLimiter,
		Notifier:  notifier,
		Logger:    log,
	}, reportsvc.Config{
		CampaignHideThreshold: cfg.Moderation.CampaignHideThreshold,
		AccountHideThreshold:  cfg.Moderation.AccountHideThreshold,
	})
	moderationService := modsvc.NewService(modsvc.Dependencies{
		Pool:      pool,
		Campaigns: campaignRepo,
		Users:     userRepo,
		Summaries: summaryRepo,
		Warnings:  warningRepo,
		AuditLog:  adminLogRepo,
		Notifier:  notifier,
		Logger:    log,
	}, modsvc.Config{
		AppealWindow: cfg.Moderation.AppealWindow,
	})
	appealService := appealsvc.NewService(appealsvc.Dependencies{
		Pool:      pool,
		Campaigns: campaignRepo,
		Users:     userRepo,
		Appeals:   appealRepo,
		AuditLog:  adminLogRepo,
		Notifier:  notifier,
		Logger:    log,
	})

	RegisterRoutes(r, Dependencies{
		AuthService:       authService,
		ReportService:     reportService,
		ModerationService: moderationService,
		AppealService:     appealService,
		Logger:            log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
