package services

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"greendrake/estates/internal/config"
	"greendrake/estates/internal/storage"
)

// MockTaskClient implements ITaskEnqueuer.
type MockTaskClient struct {
	mock.Mock
}

func (m *MockTaskClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task)
	if info := args.Get(0); info != nil {
		return info.(*asynq.TaskInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockStorage implements storage.IS3Storage.
type MockStorage struct {
	mock.Mock
}

var _ storage.IS3Storage = (*MockStorage)(nil)

func (m *MockStorage) Put(ctx context.Context, key, contentType string, body io.ReadSeeker, size int64) error {
	return m.Called(ctx, key, contentType, body, size).Error(0)
}

func (m *MockStorage) Get(ctx context.Context, key string) (*storage.Object, error) {
	args := m.Called(ctx, key)
	if o := args.Get(0); o != nil {
		return o.(*storage.Object), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorage) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func testConfig() *config.Config {
	return &config.Config{
		JwtSecret:       "test-secret",
		JwtTTL:          time.Hour,
		BcryptCost:      4,
		DefaultCurrency: "GNF",
		UploadFolder:    "real-estate",
		ImageMaxSizeMB:  1,
	}
}

func testLogger(t *testing.T) *zap.Logger {
	return zap.NewNop()
}

func phoneDuplicateErr(phone string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: fmt.Sprintf("E11000 duplicate key error collection: estates.users index: phoneNumber_1 dup key: { phoneNumber: %q }", phone),
	}}}
}
