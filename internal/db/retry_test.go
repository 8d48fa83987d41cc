package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func duplicateKeyError(index, field, value string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: fmt.Sprintf("E11000 duplicate key error collection: test.users index: %s dup key: { %s: %q }", index, field, value),
	}}}
}

func TestWithRetries_SuccessfulFirstAttempt(t *testing.T) {
	var opCalled int
	err := WithRetries(func() error {
		opCalled++
		return nil
	}, 3, IsIDCollision)

	assert.NoError(t, err)
	assert.Equal(t, 1, opCalled)
}

func TestWithRetries_FailureNotRetryable(t *testing.T) {
	var opCalled int
	expectedErr := errors.New("some other error")
	err := WithRetries(func() error {
		opCalled++
		return expectedErr
	}, 3, IsIDCollision)

	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 1, opCalled)
}

func TestWithRetries_UniqueFieldIsNotRetried(t *testing.T) {
	var opCalled int
	err := WithRetries(func() error {
		opCalled++
		return duplicateKeyError("phoneNumber_1", "phoneNumber", "224600111222")
	}, 3, IsIDCollision)

	assert.True(t, IsMongoDuplicateKeyError(err))
	assert.Equal(t, 1, opCalled)
}

func TestWithRetries_ExhaustRetries(t *testing.T) {
	var opCalled int
	err := WithRetries(func() error {
		opCalled++
		return duplicateKeyError("_id_", "_id", "x")
	}, 3, IsIDCollision)

	assert.True(t, IsMongoDuplicateKeyError(err))
	assert.Equal(t, 4, opCalled)
}

func TestWithRetries_CollisionResolves(t *testing.T) {
	taken := primitive.NewObjectID()
	inserted := map[primitive.ObjectID]bool{taken: true}
	ids := []primitive.ObjectID{taken, taken, primitive.NewObjectID()}

	var opCalled int
	err := WithRetries(func() error {
		id := ids[opCalled]
		opCalled++
		if inserted[id] {
			return duplicateKeyError("_id_", "_id", id.Hex())
		}
		inserted[id] = true
		return nil
	}, 3, IsIDCollision)

	assert.NoError(t, err)
	assert.Equal(t, 3, opCalled)
	assert.Len(t, inserted, 2)
}

func TestDuplicateKeyField(t *testing.T) {
	assert.Equal(t, "phoneNumber", DuplicateKeyField(duplicateKeyError("phoneNumber_1", "phoneNumber", "1")))
	assert.Equal(t, "_id", DuplicateKeyField(duplicateKeyError("_id_", "_id", "1")))
	assert.Equal(t, "", DuplicateKeyField(errors.New("boom")))

	wrapped := fmt.Errorf("insert: %w", duplicateKeyError("phoneNumber_1", "phoneNumber", "1"))
	assert.Equal(t, "phoneNumber", DuplicateKeyField(wrapped))
}

func TestParseDuplicateField_IndexFallback(t *testing.T) {
	assert.Equal(t, "phoneNumber", parseDuplicateField("E11000 duplicate key error collection: a.users index: phoneNumber_1"))
	assert.Equal(t, "", parseDuplicateField("something else"))
}

func TestIsMongoDuplicateKeyError_CommandError(t *testing.T) {
	err := mongo.CommandError{Code: 11000, Message: "E11000 duplicate key error index: phoneNumber_1 dup key: { phoneNumber: \"1\" }"}
	assert.True(t, IsMongoDuplicateKeyError(err))
	assert.False(t, IsMongoDuplicateKeyError(mongo.CommandError{Code: 2}))
}
