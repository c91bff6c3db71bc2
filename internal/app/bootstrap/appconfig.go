// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds stratasite's configuration, loaded in LoadConfig from
// config files, STRATASITE_* environment variables and flags.
//
// WAFFLE's CoreConfig covers the framework side (ports, TLS, log level,
// CORS, body limits). Everything specific to the content site lives here
// and is handed to every lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Admin session cookie
	SessionKey    string        // signing key, 32+ random chars in production
	SessionName   string        // cookie name (default: stratasite-session)
	SessionDomain string        // blank means current host
	SessionMaxAge time.Duration // default: 24h

	CSRFKey string // 32 bytes

	// APIKey enables Bearer authentication on /api/keyed/cms. Empty disables it.
	APIKey string

	// Login lockout
	RateLimitEnabled       bool
	RateLimitLoginAttempts int
	RateLimitLoginWindow   time.Duration
	RateLimitLoginLockout  time.Duration

	// Content defaults
	ContentDefaultsPath string // YAML file; empty uses the embedded table
	SeedContentOnStart  bool   // copy defaults into empty collections at startup

	// Origins allowed to call the public site API. Empty allows any origin.
	SiteOrigins []string

	// Asset storage
	StorageType      string // "local" or "s3"
	StorageLocalPath string
	StorageLocalURL  string
	MaxUploadSize    int64 // bytes

	// S3/CloudFront (StorageType "s3")
	StorageS3Region    string
	StorageS3Bucket    string
	StorageS3Prefix    string
	StorageCFURL       string
	StorageCFKeyPairID string
	StorageCFKeyPath   string

	// Per-operation timeouts; zero keeps the built-in value.
	TimeoutRead   time.Duration
	TimeoutWrite  time.Duration
	TimeoutUpload time.Duration
	TimeoutBatch  time.Duration

	// Audit destinations: "all" (MongoDB + zap), "db", "log" or "off".
	AuditLogAuth    string
	AuditLogContent string
	AuditRetention  time.Duration // events older than this are pruned daily; zero keeps them

	// Bootstrap admin, created on startup when no user has this login ID.
	SeedAdminLoginID  string
	SeedAdminName     string
	SeedAdminPassword string
}
