// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratadrive/internal/app/drive"
	"github.com/dalemusser/stratadrive/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete.
//
// This is the place for one-time initialization that depends on having live
// database connections and fully loaded configuration. Returning a non-nil
// error aborts startup.
//
// The context will be cancelled if the process is asked to shut down while
// Startup is running; honor it in any long-running work.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	logger.Info("drive service ready",
		zap.String("database", appCfg.MongoDatabase),
		zap.String("storage_type", appCfg.StorageType),
	)
	return nil
}

// BuildDrive assembles the drive service from the connected backends.
// Transports and other consumers call this once and share the result.
func BuildDrive(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *drive.Service {
	return drive.NewService(drive.Deps{
		DB:     deps.MongoDatabase,
		Blobs:  deps.Blobs,
		Logger: logger,
		AuditConfig: auditlog.Config{
			Drive:      appCfg.AuditLogDrive,
			Governance: appCfg.AuditLogGovernance,
		},
	})
}
