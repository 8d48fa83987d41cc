package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"greendrake/estates/internal/models"
)

// Operation is a function that performs an action and returns an error if it fails.
type Operation func() error

// IsRetryable decides whether a failed operation should be attempted again.
type IsRetryable func(err error) bool

const DefaultMaxRetries = 3

const duplicateKeyCode = 11000

// Try executes an operation, retrying only when the failure is an _id collision.
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries, IsIDCollision)
}

// WithRetries attempts op once plus up to maxRetries more times while retryable(err) holds.
func WithRetries(op Operation, maxRetries int, retryable IsRetryable) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == maxRetries || !retryable(err) {
			break
		}
		time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
	}
	return err
}

// IsMongoDuplicateKeyError checks if an error from MongoDB is a duplicate key error (code 11000).
func IsMongoDuplicateKeyError(err error) bool {
	return len(duplicateKeyMessages(err)) > 0
}

// IsIDCollision reports a duplicate key error raised by the _id index.
func IsIDCollision(err error) bool {
	return DuplicateKeyField(err) == "_id"
}

// DuplicateKeyField extracts the offending field name from a duplicate key error,
// or returns "" when err is not one.
func DuplicateKeyField(err error) string {
	for _, msg := range duplicateKeyMessages(err) {
		if field := parseDuplicateField(msg); field != "" {
			return field
		}
	}
	return ""
}

func duplicateKeyMessages(err error) []string {
	var out []string
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == duplicateKeyCode {
				out = append(out, e.Message)
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == duplicateKeyCode {
				out = append(out, e.Message)
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == duplicateKeyCode {
		out = append(out, ce.Message)
	}
	return out
}

// parseDuplicateField reads the field from messages shaped like
// "E11000 duplicate key error collection: x.users index: phoneNumber_1 dup key: { phoneNumber: \"1\" }".
func parseDuplicateField(msg string) string {
	if i := strings.Index(msg, "dup key: { "); i >= 0 {
		rest := msg[i+len("dup key: { "):]
		if j := strings.Index(rest, ":"); j > 0 {
			return strings.TrimSpace(rest[:j])
		}
	}
	if i := strings.Index(msg, "index: "); i >= 0 {
		rest := msg[i+len("index: "):]
		if j := strings.Index(rest, " "); j > 0 {
			rest = rest[:j]
		}
		if k := strings.LastIndex(rest, "_"); k > 0 {
			return rest[:k]
		}
		return rest
	}
	return ""
}

// InsertOne stamps and inserts doc, regenerating its ID on _id collisions.
func InsertOne[T models.IBase](ctx context.Context, coll *mongo.Collection, doc T) (T, error) {
	doc.Touch(time.Now().UTC())
	first := true
	err := Try(func() error {
		if first {
			doc.GenIDIfEmpty()
			first = false
		} else {
			doc.GenID()
		}
		_, err := coll.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		return doc, fmt.Errorf("failed to insert into %s: %w", coll.Name(), err)
	}
	return doc, nil
}
