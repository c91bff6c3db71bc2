// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks wires stratasite into the WAFFLE lifecycle. app.Run calls them in
// order, from configuration loading to graceful shutdown.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "stratasite",
	LoadConfig:     LoadConfig,     // core + app config
	ValidateConfig: ValidateConfig, // Mongo URI, storage, defaults table
	ConnectDB:      ConnectDB,      // MongoDB, asset storage, content registry
	EnsureSchema:   EnsureSchema,   // validators and indexes
	Startup:        Startup,        // seed admin and, optionally, content
	BuildHandler:   BuildHandler,   // router + middleware stack
	Shutdown:       Shutdown,       // disconnect MongoDB
}
