// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where you put everything specific to YOUR application.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// API key authentication (for external API consumers)
	// When set, enables Bearer token authentication for API routes.
	// Leave empty to disable API key authentication.
	APIKey string

	// Local file browsing configuration
	BrowseLocalRoot string // Root directory served by the local file browser

	// AWS S3 file browsing configuration (browsing disabled when bucket is blank)
	AWSRegion    string // AWS region
	AWSBucket    string // S3 bucket name
	AWSPrefix    string // Key prefix scoping all browse paths (e.g., "data/")
	AWSAccessKey string // Static access key ID (blank means default credential chain)
	AWSSecretKey string // Static secret access key
	AWSEndpoint  string // Optional endpoint override for S3-compatible stores (MinIO)

	// Request ledger configuration
	LedgerEnabled    bool // Capture failed API requests to MongoDB
	LedgerOnlyErrors bool // Persist only responses with status >= 400

	// Superuser seeding configuration
	SeedSuperuserEmail    string // Email of the superuser to create on startup (if set)
	SeedSuperuserUsername string // Username of the seeded superuser
	SeedSuperuserPassword string // Password of the seeded superuser
}
