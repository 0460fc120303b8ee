package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ivankudzin/frameup/internal/config"
	"github.com/ivankudzin/frameup/internal/infra/email"
	"github.com/ivankudzin/frameup/internal/infra/logger"
	"github.com/ivankudzin/frameup/internal/jobs/appealsweep"
	pgrepo "github.com/ivankudzin/frameup/internal/repo/postgres"
	notifysvc "github.com/ivankudzin/frameup/internal/services/notify"
)

func main() {
	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal("postgres init", zap.Error(err))
	}
	defer pool.Close()

	campaignRepo := pgrepo.NewCampaignRepo(pool)
	userRepo := pgrepo.NewUserRepo(pool)
	appealRepo := pgrepo.NewAppealRepo(pool)
	adminLogRepo := pgrepo.NewAdminLogRepo(pool)
	notificationRepo := pgrepo.NewNotificationRepo(pool)

	emailSender := email.NewSender(email.Config{
		Addr:     cfg.SMTP.Addr,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	notifier := notifysvc.NewService(notificationRepo, emailSender, log)

	job := appealsweep.New(pool, campaignRepo, userRepo, appealRepo, adminLogRepo, notifier,
		cfg.Jobs.ReminderOffsets, log)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Jobs.SweepSchedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, cfg.Jobs.RunTimeout)
		defer cancel()
		if _, err := job.RunSweep(runCtx); err != nil {
			log.Error("appeal sweep failed", zap.Error(err))
		}
	}); err != nil {
		log.Fatal("schedule sweep", zap.Error(err))
	}
	if _, err := scheduler.AddFunc(cfg.Jobs.ReminderSchedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, cfg.Jobs.RunTimeout)
		defer cancel()
		if _, err := job.RunReminders(runCtx); err != nil {
			log.Error("appeal reminders failed", zap.Error(err))
		}
	}); err != nil {
		log.Fatal("schedule reminders", zap.Error(err))
	}

	scheduler.Start()
	log.Info("jobs scheduler started",
		zap.String("sweep_schedule", cfg.Jobs.SweepSchedule),
		zap.String("reminder_schedule", cfg.Jobs.ReminderSchedule))

	<-ctx.Done()
	cronCtx := scheduler.Stop()
	<-cronCtx.Done()
	log.Info("jobs scheduler stopped")
}
