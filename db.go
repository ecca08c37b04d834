package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Bijush/Avoter/store"
)

// openStore builds the record store selected by STORE_DRIVER. Connection
// settings come from the environment; a missing required value is a fatal
// configuration error surfaced to the caller.
func openStore(ctx context.Context, logger *zap.Logger) (store.RecordStore, error) {
	driver := strings.ToLower(os.Getenv("STORE_DRIVER"))
	switch driver {
	case "", "postgres":
		dsn := os.Getenv("DB_DSN")
		if dsn == "" {
			return nil, fmt.Errorf("DB_DSN is not set; the postgres store requires a DSN")
		}
		return store.OpenPostgres(dsn, logger)
	case "mongo":
		uri := os.Getenv("MONGO_URI")
		if uri == "" {
			return nil, fmt.Errorf("MONGO_URI is not set; the mongo store requires a connection URI")
		}
		dbName := os.Getenv("MONGO_DB")
		if dbName == "" {
			dbName = "avoter"
		}
		return store.OpenMongo(ctx, uri, dbName)
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", driver)
	}
}

// uploadBaseDir returns the base directory for attachment blobs (configurable via UPLOAD_BASE env)
func uploadBaseDir() string {
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	return "uploads"
}
