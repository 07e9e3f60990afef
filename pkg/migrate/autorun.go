package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/saastools-backend/pkg/config"
	"github.com/angelmondragon/saastools-backend/pkg/db"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
)

// MaybeRunDev applies the embedded migrations on boot when running in dev with
// SAASTOOLS_AUTO_MIGRATE enabled.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	runner, err := NewRunner(sqlDB, "")
	if err != nil {
		return err
	}

	applied, err := runner.Up(ctx)
	for _, m := range applied {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"version":     m.Version,
			"source":      m.Source,
			"duration_ms": m.Duration.Milliseconds(),
		}), "migrate.autorun.applied")
	}
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "applied", len(applied)), "migrate.autorun.complete")
	return nil
}
