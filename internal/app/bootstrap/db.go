// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratadrive/internal/app/system/blob"
	"github.com/dalemusser/stratadrive/internal/app/system/indexes"
	"github.com/dalemusser/stratadrive/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// ConnectDB connects to databases and the blob storage backend.
//
// WAFFLE calls this after configuration is loaded but before EnsureSchema and
// Startup. Clients are stored in the DBDeps struct for use by the rest of
// the app.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	// Configure MongoDB connection pool
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		return DBDeps{}, err
	}

	db := client.Database(appCfg.MongoDatabase)

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
		zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
	)

	// Initialize blob storage
	var blobs blob.Store
	switch appCfg.StorageType {
	case "s3":
		blobs, err = blob.NewS3(ctx, blob.S3Config{
			Region:          appCfg.StorageS3Region,
			Bucket:          appCfg.StorageS3Bucket,
			Prefix:          appCfg.StorageS3Prefix,
			Endpoint:        appCfg.StorageS3Endpoint,
			AccessKeyID:     appCfg.StorageS3AccessKeyID,
			SecretAccessKey: appCfg.StorageS3SecretAccessKey,
		})
		if err != nil {
			return DBDeps{}, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		logger.Info("initialized S3 blob storage",
			zap.String("bucket", appCfg.StorageS3Bucket),
			zap.String("prefix", appCfg.StorageS3Prefix),
		)
	case "local", "":
		blobs, err = blob.NewLocal(appCfg.StorageLocalPath)
		if err != nil {
			return DBDeps{}, fmt.Errorf("failed to initialize local storage: %w", err)
		}
		logger.Info("initialized local blob storage",
			zap.String("path", appCfg.StorageLocalPath),
		)
	default:
		return DBDeps{}, fmt.Errorf("unknown storage type: %s", appCfg.StorageType)
	}

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Blobs:         blobs,
	}, nil
}

// EnsureSchema sets up collections and indexes.
//
// This runs after ConnectDB succeeds but before Startup. The context has a
// timeout based on coreCfg.IndexBootTimeout, so long-running work should
// respect context cancellation.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	// Ensure collections exist and attach JSON-Schema validators.
	// This runs first so indexes can be created on existing collections.
	logger.Info("ensuring collections and validators")
	if err := validators.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure validators", zap.Error(err))
		return err
	}

	// Ensure database indexes for query performance.
	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
