package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/saastools-backend/internal/content"
	"github.com/angelmondragon/saastools-backend/internal/email"
	"github.com/angelmondragon/saastools-backend/internal/seed"
	"github.com/angelmondragon/saastools-backend/internal/tools"
	"github.com/angelmondragon/saastools-backend/internal/users"
	"github.com/angelmondragon/saastools-backend/pkg/config"
	"github.com/angelmondragon/saastools-backend/pkg/db"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
	"github.com/angelmondragon/saastools-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})
	_ = godotenv.Load()

	adminPassword := flag.String("admin-password", os.Getenv("SAASTOOLS_ADMIN_PASSWORD"), "password for a newly created admin account")
	skipDemo := flag.Bool("skip-demo", false, "do not create the demo seller account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Env:         cfg.App.Env,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithField(context.Background(), "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	seeder, err := seed.New(seed.Params{
		Users:          users.NewRepository(conn),
		Tools:          tools.NewRepository(conn),
		Templates:      email.NewRepository(conn),
		Content:        content.NewRepository(conn),
		Password:       cfg.Password,
		Logger:         logg,
		AdminEmail:     cfg.App.AdminEmail,
		AdminPassword:  *adminPassword,
		SkipDemoSeller: *skipDemo || cfg.App.IsProd(),
	})
	if err != nil {
		logg.Error(ctx, "failed to create seeder", err)
		os.Exit(1)
	}

	if err := seeder.Run(ctx); err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "seed complete")
}
