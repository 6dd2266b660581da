// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like logging level
// and format, and database connection timeouts. AppConfig is where
// everything specific to this application lives.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Blob storage configuration
	StorageType      string // Storage backend: "local" or "s3"
	StorageLocalPath string // Local storage path (e.g., "./uploads")

	// S3 configuration (only used if StorageType is "s3")
	StorageS3Region          string // AWS region
	StorageS3Bucket          string // S3 bucket name
	StorageS3Prefix          string // Key prefix (e.g., "files/")
	StorageS3Endpoint        string // Custom endpoint for S3-compatible stores (MinIO etc.)
	StorageS3AccessKeyID     string // Static credentials; empty means the default AWS chain
	StorageS3SecretAccessKey string

	// Audit logging configuration
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	AuditLogDrive      string // Drive events (create, upload, rename, delete)
	AuditLogGovernance string // Sharing-surface mutations (visibility, grants)
}
