package utils

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"greendrake/estates/internal/db"
)

// testMongoURI reads MONGO_URI_TEST, falling back to the repository's .env.
func testMongoURI() string {
	if uri := os.Getenv("MONGO_URI_TEST"); uri != "" {
		return uri
	}
	_, file, _, _ := runtime.Caller(0)
	_ = godotenv.Load(filepath.Join(filepath.Dir(file), "..", "..", ".env"))
	return os.Getenv("MONGO_URI_TEST")
}

// SetupTestDB returns a freshly dropped database carrying the production indexes.
// Tests are skipped when no test MongoDB is configured.
func SetupTestDB(t *testing.T, dbName string) *mongo.Database {
	t.Helper()
	uri := testMongoURI()
	if uri == "" {
		t.Skip("MONGO_URI_TEST not set")
	}

	client, database, err := db.ConnectDB(uri, dbName, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.DisconnectDB(client, zap.NewNop()) })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	require.NoError(t, database.Drop(ctx))
	require.NoError(t, db.EnsureIndexes(ctx, database))
	return database
}
