// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/stratasite/internal/app/content/defaults"
	"github.com/dalemusser/stratasite/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "STRATASITE"

// appConfigKeys are loaded via WAFFLE's config system from config files
// (mongo_uri), environment variables (STRATASITE_MONGO_URI) and flags
// (--mongo_uri).
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratasite", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "stratasite-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie max age (e.g., 24h, 720h, 30m)"},
	{Name: "csrf_key", Default: "dev-only-csrf-key-please-change-0123456789", Desc: "CSRF token signing key (32+ chars in production)"},
	{Name: "api_key", Default: "", Desc: "Bearer key for /api/keyed/cms (leave empty to disable)"},

	{Name: "rate_limit_enabled", Default: true, Desc: "Lock a login ID out after repeated failed sign-ins"},
	{Name: "rate_limit_login_attempts", Default: 5, Desc: "Failed sign-ins before lockout"},
	{Name: "rate_limit_login_window", Default: "15m", Desc: "Window for counting failed sign-ins"},
	{Name: "rate_limit_login_lockout", Default: "15m", Desc: "Lockout duration"},

	{Name: "content_defaults_path", Default: "", Desc: "YAML defaults table (empty uses the built-in table)"},
	{Name: "seed_content_on_start", Default: false, Desc: "Copy defaults into empty content collections at startup"},
	{Name: "site_origins", Default: "", Desc: "Comma-separated origins allowed to call /api/site (empty allows any)"},

	{Name: "storage_type", Default: "local", Desc: "Asset storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path for uploaded assets"},
	{Name: "storage_local_url", Default: "/uploads", Desc: "URL prefix for serving local assets"},
	{Name: "max_upload_mb", Default: 10, Desc: "Largest accepted asset upload in MiB"},

	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "uploads/", Desc: "S3 key prefix"},
	{Name: "storage_cf_url", Default: "", Desc: "CloudFront distribution URL"},
	{Name: "storage_cf_keypair_id", Default: "", Desc: "CloudFront key pair ID"},
	{Name: "storage_cf_key_path", Default: "", Desc: "Path to CloudFront private key file"},

	{Name: "timeout_read", Default: "5s", Desc: "Timeout for one content read"},
	{Name: "timeout_write", Default: "10s", Desc: "Timeout for one content write"},
	{Name: "timeout_upload", Default: "60s", Desc: "Timeout for storing an uploaded asset"},
	{Name: "timeout_batch", Default: "30s", Desc: "Timeout for reorder and seed batches"},

	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_content", Default: "all", Desc: "Content and asset event logging: 'all', 'db', 'log', or 'off'"},
	{Name: "audit_retention", Default: "2160h", Desc: "Prune audit events older than this (0 keeps them forever)"},

	{Name: "seed_admin_login_id", Default: "", Desc: "Login ID of the admin user to create on startup"},
	{Name: "seed_admin_name", Default: "Admin", Desc: "Name of the seeded admin user"},
	{Name: "seed_admin_password", Default: "", Desc: "Password of the seeded admin user"},
}

// LoadConfig loads WAFFLE core config and the app config. Precedence is
// flags > env > files > defaults.
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

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),
		CSRFKey:       appValues.String("csrf_key"),
		APIKey:        appValues.String("api_key"),

		RateLimitEnabled:       appValues.Bool("rate_limit_enabled"),
		RateLimitLoginAttempts: appValues.Int("rate_limit_login_attempts"),
		RateLimitLoginWindow:   appValues.Duration("rate_limit_login_window", 15*time.Minute),
		RateLimitLoginLockout:  appValues.Duration("rate_limit_login_lockout", 15*time.Minute),

		ContentDefaultsPath: appValues.String("content_defaults_path"),
		SeedContentOnStart:  appValues.Bool("seed_content_on_start"),
		SiteOrigins:         splitList(appValues.String("site_origins")),

		StorageType:      appValues.String("storage_type"),
		StorageLocalPath: appValues.String("storage_local_path"),
		StorageLocalURL:  appValues.String("storage_local_url"),
		MaxUploadSize:    int64(appValues.Int("max_upload_mb")) << 20,

		StorageS3Region:    appValues.String("storage_s3_region"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3Prefix:    appValues.String("storage_s3_prefix"),
		StorageCFURL:       appValues.String("storage_cf_url"),
		StorageCFKeyPairID: appValues.String("storage_cf_keypair_id"),
		StorageCFKeyPath:   appValues.String("storage_cf_key_path"),

		TimeoutRead:   appValues.Duration("timeout_read", 0),
		TimeoutWrite:  appValues.Duration("timeout_write", 0),
		TimeoutUpload: appValues.Duration("timeout_upload", 0),
		TimeoutBatch:  appValues.Duration("timeout_batch", 0),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogContent: appValues.String("audit_log_content"),
		AuditRetention:  appValues.Duration("audit_retention", 90*24*time.Hour),

		SeedAdminLoginID:  appValues.String("seed_admin_login_id"),
		SeedAdminName:     appValues.String("seed_admin_name"),
		SeedAdminPassword: appValues.String("seed_admin_password"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig rejects configuration that would fail later at runtime:
// a bad Mongo URI, an unknown storage backend or audit destination, and a
// defaults table that does not parse.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	switch appCfg.StorageType {
	case "", "local":
	case "s3":
		if appCfg.StorageS3Bucket == "" || appCfg.StorageS3Region == "" {
			return fmt.Errorf("storage_type s3 requires storage_s3_bucket and storage_s3_region")
		}
	default:
		return fmt.Errorf("unknown storage_type %q", appCfg.StorageType)
	}

	for key, v := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_content": appCfg.AuditLogContent} {
		switch v {
		case "", auditlog.ToAll, auditlog.ToDB, auditlog.ToLog, auditlog.Off:
		default:
			return fmt.Errorf("%s must be all, db, log or off; got %q", key, v)
		}
	}

	if appCfg.AuditRetention < 0 {
		return fmt.Errorf("audit_retention must not be negative")
	}

	if appCfg.MaxUploadSize <= 0 {
		return fmt.Errorf("max_upload_mb must be positive")
	}

	if appCfg.SeedAdminLoginID != "" && appCfg.SeedAdminPassword == "" {
		return fmt.Errorf("seed_admin_login_id requires seed_admin_password")
	}

	table, err := defaults.Load(appCfg.ContentDefaultsPath)
	if err == nil {
		err = table.Check()
	}
	if err != nil {
		logger.Error("content defaults table is invalid", zap.Error(err))
		return fmt.Errorf("content defaults: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
