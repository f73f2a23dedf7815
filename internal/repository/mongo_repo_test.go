package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// unreachableDB points at a closed port; Connect is lazy, so only the first
// operation fails.
func unreachableDB(t *testing.T) *mongo.Database {
	t.Helper()
	client, err := mongo.Connect(context.Background(), options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(100*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client.Database("files_manager_test")
}

func TestMongoStoresFailWithoutIndexes(t *testing.T) {
	db := unreachableDB(t)
	ctx := context.Background()

	users, err := NewMongoUserRepo(ctx, db, "users")
	assert.Nil(t, users)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "users email index")

	files, err := NewMongoFileStore(ctx, db, "files")
	assert.Nil(t, files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "files listing index")
}
