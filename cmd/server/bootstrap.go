package main

import (
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/okastudio/platewatch/internal/api"
	"github.com/okastudio/platewatch/internal/app"
	"github.com/okastudio/platewatch/internal/app/maintenance"
	"github.com/okastudio/platewatch/internal/auth"
	"github.com/okastudio/platewatch/internal/database"
	"github.com/okastudio/platewatch/internal/moderation"
	"github.com/okastudio/platewatch/internal/realtime"
	"github.com/okastudio/platewatch/internal/services"
)

// runtimeStack holds every long-lived component the server owns.
type runtimeStack struct {
	cfg     *app.Config
	db      *gorm.DB
	hub     *realtime.Hub
	cleaner *maintenance.Cleaner
	server  *http.Server
}

func buildStack(cfg *app.Config) (*runtimeStack, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:         cfg.Auth.JWTSecret,
		Issuer:         cfg.Auth.JWTIssuer,
		AccessTokenTTL: cfg.Auth.AccessTokenTTL,
	})
	if err != nil {
		return nil, err
	}

	policy := app.BuildPolicy(cfg.Moderation)
	hub := realtime.NewHub()
	media := services.NewMediaURLResolver(cfg.Media.PublicBaseURL)

	users, err := services.NewUserService(db, media)
	if err != nil {
		return nil, err
	}
	recipes, err := services.NewRecipeService(db, media)
	if err != nil {
		return nil, err
	}
	notifications, err := services.NewNotificationService(db, hub)
	if err != nil {
		return nil, err
	}
	notifier, err := services.NewNotifier(db, notifications, users, recipes, hub, policy)
	if err != nil {
		return nil, err
	}
	validator, err := services.NewReportValidator(db, users, recipes)
	if err != nil {
		return nil, err
	}
	executor, err := services.NewActionExecutor(users, recipes, policy)
	if err != nil {
		return nil, err
	}
	synchronizer := services.NewReportSynchronizer()
	autoModerator, err := services.NewAutoModerator(policy, executor, synchronizer)
	if err != nil {
		return nil, err
	}
	groups, err := services.NewReportGroupService(db, policy, users, recipes)
	if err != nil {
		return nil, err
	}
	reports, err := services.NewReportService(services.ReportServiceDeps{
		DB:            db,
		Policy:        policy,
		Locks:         moderation.NewTargetLocks(),
		Validator:     validator,
		Executor:      executor,
		Synchronizer:  synchronizer,
		AutoModerator: autoModerator,
		Notifier:      notifier,
		Notifications: notifications,
		Users:         users,
	})
	if err != nil {
		return nil, err
	}

	cleaner, err := maintenance.NewCleaner(notifications, cfg.Retention.NotificationTTL, cfg.Retention.SweepSchedule)
	if err != nil {
		return nil, err
	}

	router, err := api.NewRouter(api.Dependencies{
		DB:            db,
		JWT:           jwtService,
		Hub:           hub,
		Reports:       reports,
		Groups:        groups,
		Notifications: notifications,
		EnableMetrics: cfg.Monitoring.EnableMetrics,
	})
	if err != nil {
		return nil, err
	}

	return &runtimeStack{
		cfg:     cfg,
		db:      db,
		hub:     hub,
		cleaner: cleaner,
		server: &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}, nil
}
