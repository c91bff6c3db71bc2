// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/stratasite/internal/app/content/defaults"
	"github.com/dalemusser/stratasite/internal/app/content/resolve"
	"github.com/dalemusser/stratasite/internal/app/store/audit"
	contentstore "github.com/dalemusser/stratasite/internal/app/store/content"
	"github.com/dalemusser/stratasite/internal/app/system/auditlog"
	"github.com/dalemusser/stratasite/internal/app/system/tasks"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backends built in ConnectDB and passed to EnsureSchema,
// Startup, BuildHandler and Shutdown.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// FileStorage holds uploaded asset bytes (local disk or S3).
	FileStorage storage.Store

	// Content persistence and resolution.
	Registry *contentstore.Registry
	Defaults *defaults.Table
	Resolver *resolve.Resolver

	Audit       *audit.Store
	AuditLogger *auditlog.Logger

	// Tasks runs maintenance jobs between Startup and Shutdown.
	Tasks *tasks.Runner
}
