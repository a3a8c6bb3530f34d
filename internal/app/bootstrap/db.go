// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/strataview/internal/app/store/files"
	"github.com/dalemusser/strataview/internal/app/system/indexes"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// ConnectDB connects to databases or other backends.
//
// WAFFLE calls this after configuration is loaded but before EnsureSchema and
// Startup. This is the place to establish connections to databases, caches,
// and external services that require persistent clients.
//
// Best practices:
//   - Use coreCfg.DBConnectTimeout to set connection timeouts
//   - Log connection attempts and successes for debugging
//   - Return descriptive errors if connections fail
//   - Store clients in the DBDeps struct for use in handlers
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

	// Initialize the local file browser
	local, err := files.NewLocal(appCfg.BrowseLocalRoot)
	if err != nil {
		return DBDeps{}, fmt.Errorf("failed to initialize local file browser: %w", err)
	}
	logger.Info("initialized local file browser",
		zap.String("root", appCfg.BrowseLocalRoot))

	// Initialize the S3 file browser when a bucket is configured
	var s3Browser *files.S3
	if appCfg.AWSBucket != "" {
		s3Browser, err = files.NewS3(ctx, files.S3Config{
			Region:    appCfg.AWSRegion,
			Bucket:    appCfg.AWSBucket,
			Prefix:    appCfg.AWSPrefix,
			AccessKey: appCfg.AWSAccessKey,
			SecretKey: appCfg.AWSSecretKey,
			Endpoint:  appCfg.AWSEndpoint,
		}, logger)
		if err != nil {
			return DBDeps{}, fmt.Errorf("failed to initialize S3 file browser: %w", err)
		}
		logger.Info("initialized S3 file browser",
			zap.String("region", appCfg.AWSRegion),
			zap.String("bucket", appCfg.AWSBucket),
			zap.String("prefix", appCfg.AWSPrefix),
		)
	} else {
		logger.Info("S3 file browsing disabled (no bucket configured)")
	}

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		LocalBrowser:  local,
		S3Browser:     s3Browser,
	}, nil
}

// EnsureSchema sets up indexes or schema as needed.
//
// This runs after ConnectDB succeeds but before Startup and before the HTTP
// handler is built. The context has a timeout based on
// coreCfg.IndexBootTimeout, so long-running work should respect context
// cancellation.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	// Ensure database indexes for query performance and uniqueness.
	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
