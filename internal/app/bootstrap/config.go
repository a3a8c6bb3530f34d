// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "STRATAVIEW"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, aws_bucket, etc.
//   - Environment variables: STRATAVIEW_MONGO_URI, STRATAVIEW_AWS_BUCKET, etc.
//   - Command-line flags: --mongo_uri, --aws_bucket, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "strataview", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// API key configuration (for external API consumers using Bearer token auth)
	{Name: "api_key", Default: "", Desc: "API key for external API access (leave empty to disable API key auth)"},

	// Local file browsing
	{Name: "browse_local_root", Default: "./data", Desc: "Root directory for the local file browser"},

	// AWS S3 file browsing
	{Name: "aws_region", Default: "", Desc: "AWS region for S3 browsing"},
	{Name: "aws_bucket", Default: "", Desc: "S3 bucket name (leave empty to disable S3 browsing)"},
	{Name: "aws_prefix", Default: "", Desc: "S3 key prefix scoping all browse paths"},
	{Name: "aws_access_key", Default: "", Desc: "AWS access key ID (leave empty to use the default credential chain)"},
	{Name: "aws_secret_key", Default: "", Desc: "AWS secret access key"},
	{Name: "aws_endpoint", Default: "", Desc: "S3 endpoint override for S3-compatible stores like MinIO (leave empty for AWS)"},

	// Request ledger
	{Name: "ledger_enabled", Default: true, Desc: "Capture failed API requests to MongoDB"},
	{Name: "ledger_only_errors", Default: true, Desc: "Persist ledger entries only for status >= 400"},

	// Superuser seeding configuration
	{Name: "seed_superuser_email", Default: "", Desc: "Email of superuser to create on startup"},
	{Name: "seed_superuser_username", Default: "admin", Desc: "Username of superuser to create on startup"},
	{Name: "seed_superuser_password", Default: "", Desc: "Password of superuser to create on startup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, STRATAVIEW_* for app)
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

		APIKey: appValues.String("api_key"),

		BrowseLocalRoot: appValues.String("browse_local_root"),

		AWSRegion:    appValues.String("aws_region"),
		AWSBucket:    appValues.String("aws_bucket"),
		AWSPrefix:    appValues.String("aws_prefix"),
		AWSAccessKey: appValues.String("aws_access_key"),
		AWSSecretKey: appValues.String("aws_secret_key"),
		AWSEndpoint:  appValues.String("aws_endpoint"),

		LedgerEnabled:    appValues.Bool("ledger_enabled"),
		LedgerOnlyErrors: appValues.Bool("ledger_only_errors"),

		SeedSuperuserEmail:    appValues.String("seed_superuser_email"),
		SeedSuperuserUsername: appValues.String("seed_superuser_username"),
		SeedSuperuserPassword: appValues.String("seed_superuser_password"),
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

	if appCfg.BrowseLocalRoot == "" {
		return fmt.Errorf("browse_local_root must not be empty")
	}

	if appCfg.AWSBucket != "" && appCfg.AWSRegion == "" {
		return fmt.Errorf("aws_region is required when aws_bucket is set")
	}
	if (appCfg.AWSAccessKey == "") != (appCfg.AWSSecretKey == "") {
		return fmt.Errorf("aws_access_key and aws_secret_key must be set together")
	}

	return nil
}
