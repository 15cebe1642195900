// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/regionhub/internal/app/system/dbconn"
	"github.com/dalemusser/regionhub/internal/app/system/geocode"
	"github.com/dalemusser/regionhub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backend dependencies for the app: the supervised Mongo
// connection, the geocoding provider client, and the reference reconciler.
// All are constructed once in ConnectDB and injected everywhere; nothing in
// the app holds its own.
type DBDeps struct {
	Mongo      *dbconn.Manager
	Database   *mongo.Database
	Geocoder   *geocode.Client
	Reconciler *workers.RefReconciler
}
