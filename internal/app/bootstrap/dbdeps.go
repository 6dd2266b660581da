// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/stratadrive/internal/app/system/blob"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// This struct is created in ConnectDB and passed to subsequent lifecycle
// hooks: EnsureSchema, Startup, and Shutdown. It serves as the central
// place to store all database clients and backend connections the
// application needs.
//
// The Shutdown hook is responsible for closing these connections gracefully
// when the application terminates.
type DBDeps struct {
	// MongoDB client and database
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Blobs holds the backing bytes of file records
	Blobs blob.Store
}
