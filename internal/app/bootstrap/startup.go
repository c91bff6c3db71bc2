// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratasite/internal/app/system/seeding"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after the schema is in place and before requests are
// served. It seeds the bootstrap admin and, when configured, copies the
// defaults table into empty content collections, then starts maintenance
// tasks. Returning an error aborts startup.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	admin := seeding.Admin{
		LoginID:  appCfg.SeedAdminLoginID,
		Name:     appCfg.SeedAdminName,
		Password: appCfg.SeedAdminPassword,
	}
	if err := seeding.SeedAdmin(ctx, deps.MongoDatabase, admin, logger); err != nil {
		logger.Error("failed to seed admin user", zap.Error(err))
		return err
	}

	if appCfg.SeedContentOnStart {
		seeded, err := seeding.SeedContent(ctx, deps.Registry, deps.Defaults, logger)
		if err != nil {
			logger.Error("failed to seed content", zap.Error(err))
			return err
		}
		for kind, n := range seeded {
			logger.Info("seeded content kind", zap.String("kind", kind), zap.Int("documents", n))
		}
	}

	deps.Tasks.Start()
	return nil
}
