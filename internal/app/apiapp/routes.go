package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/frameup/internal/domain/enums"
	appealsvc "github.com/ivankudzin/frameup/internal/services/appeals"
	authsvc "github.com/ivankudzin/frameup/internal/services/auth"
	modsvc "github.com/ivankudzin/frameup/internal/services/moderation"
	reportsvc "github.com/ivankudzin/frameup/internal/services/reports"
	"github.com/ivankudzin/frameup/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService       *authsvc.Service
	ReportService     *reportsvc.Service
	ModerationService *modsvc.Service
	AppealService     *appealsvc.Service
	Logger            *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	reportHandler := handlers.NewReportHandler(deps.ReportService)
	appealHandler := handlers.NewAppealHandler(deps.AppealService)
	warningsHandler := handlers.NewWarningsHandler(deps.ModerationService)
	adminReportsHandler := handlers.NewAdminReportsHandler(deps.ModerationService)
	adminAppealsHandler := handlers.NewAdminAppealsHandler(deps.AppealService)

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	optionalAuthMW := OptionalAuthMiddleware(deps.AuthService, deps.Logger)
	adminRoleMW := RequireRole(string(enums.RoleAdmin))

	r.Get("/healthz", healthHandler.Get)

	// Reports accept anonymous submissions; the rate limiter falls back
	// to per-IP limits when no reporter identity is attached.
	r.With(optionalAuthMW).Post("/reports", reportHandler.Submit)
	r.With(authMW).Post("/appeals", appealHandler.Submit)
	r.With(authMW).Get("/warnings", warningsHandler.List)
	r.With(authMW).Post("/warnings/{warningID}/ack", warningsHandler.Acknowledge)

	r.Route("/admin", func(r chi.Router) {
		r.Use(authMW, adminRoleMW)
		r.Get("/reports", adminReportsHandler.Queue)
		r.Post("/reports/{summaryID}/resolve", adminReportsHandler.Resolve)
		r.Get("/appeals", adminAppealsHandler.Queue)
		r.Post("/appeals/{appealID}/decide", adminAppealsHandler.Decide)
	})
}
