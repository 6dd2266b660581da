// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
// Change this constant when forking stratadrive for a new project.
const EnvVarPrefix = "STRATADRIVE"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, storage_type, etc.
//   - Environment variables: STRATADRIVE_MONGO_URI, STRATADRIVE_STORAGE_TYPE, etc.
//   - Command-line flags: --mongo_uri, --storage_type, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratadrive", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Blob storage configuration
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path for file bytes"},

	// S3 configuration
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "files/", Desc: "S3 key prefix"},
	{Name: "storage_s3_endpoint", Default: "", Desc: "Custom S3 endpoint (MinIO etc., empty for AWS)"},
	{Name: "storage_s3_access_key_id", Default: "", Desc: "S3 access key ID (empty for default AWS chain)"},
	{Name: "storage_s3_secret_access_key", Default: "", Desc: "S3 secret access key"},

	// Audit logging settings
	{Name: "audit_log_drive", Default: "all", Desc: "Drive event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_governance", Default: "all", Desc: "Governance event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends are built. CoreConfig comes
// from the shared WAFFLE layer; AppConfig is specific to this app.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, STRATADRIVE_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		// Blob storage
		StorageType:      appValues.String("storage_type"),
		StorageLocalPath: appValues.String("storage_local_path"),

		// S3
		StorageS3Region:          appValues.String("storage_s3_region"),
		StorageS3Bucket:          appValues.String("storage_s3_bucket"),
		StorageS3Prefix:          appValues.String("storage_s3_prefix"),
		StorageS3Endpoint:        appValues.String("storage_s3_endpoint"),
		StorageS3AccessKeyID:     appValues.String("storage_s3_access_key_id"),
		StorageS3SecretAccessKey: appValues.String("storage_s3_secret_access_key"),

		// Audit logging
		AuditLogDrive:      appValues.String("audit_log_drive"),
		AuditLogGovernance: appValues.String("audit_log_governance"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// This is the right place to enforce required fields or invariants that
// involve both the core and app configs.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.StorageType == "s3" && appCfg.StorageS3Bucket == "" {
		return fmt.Errorf("storage_s3_bucket is required when storage_type is s3")
	}

	return nil
}
