package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	ActionEnquiryNotify = "enquiry_notify"
	ActionUnknown       = "unknown"

	mockEmailTTL = 5 * time.Minute
)

// ErrNoStoredEmail is returned by GetStoredEmail when nothing was captured for the key.
var ErrNoStoredEmail = errors.New("no stored email")

// StoredEmail is the JSON document a RedisSender keeps per recipient and action.
type StoredEmail struct {
	To         string `json:"to"`
	From       string `json:"from"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	SentAt     string `json:"sent_at"`
	ActionType string `json:"actionType"`
}

// RedisSender captures outgoing mail in Redis so end-to-end tests can read it back.
type RedisSender struct {
	client *redis.Client
	from   string
	logger *zap.Logger
}

func NewRedisSender(client *redis.Client, from string, logger *zap.Logger) *RedisSender {
	return &RedisSender{client: client, from: from, logger: logger}
}

// ActionFor classifies a message by its subject line.
func ActionFor(subject string) string {
	if strings.HasPrefix(subject, EnquirySubjectPrefix) {
		return ActionEnquiryNotify
	}
	return ActionUnknown
}

func mockEmailKey(to, action string) string {
	return fmt.Sprintf("mockemail:%s:%s", to, action)
}

func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	primaryTo := ""
	if len(to) > 0 {
		primaryTo = to[0]
	}
	action := ActionFor(subject)

	data, err := json.Marshal(StoredEmail{
		To:         strings.Join(to, ", "),
		From:       s.from,
		Subject:    subject,
		Body:       string(rawMessage),
		SentAt:     time.Now().UTC().Format(time.RFC3339Nano),
		ActionType: action,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email data: %w", err)
	}

	key := mockEmailKey(primaryTo, action)
	if err := s.client.Set(ctx, key, data, mockEmailTTL).Err(); err != nil {
		return fmt.Errorf("failed to store email in Redis key '%s': %w", key, err)
	}

	s.logger.Debug("mock email stored", zap.String("key", key), zap.String("subject", subject))
	return nil
}

// GetStoredEmail reads back a message captured by a RedisSender.
func GetStoredEmail(ctx context.Context, client *redis.Client, to, action string) (*StoredEmail, error) {
	raw, err := client.Get(ctx, mockEmailKey(to, action)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoStoredEmail
		}
		return nil, fmt.Errorf("failed to read stored email: %w", err)
	}
	var stored StoredEmail
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode stored email: %w", err)
	}
	return &stored, nil
}

// DeleteStoredEmail removes a captured message so the next poll only sees newer mail.
func DeleteStoredEmail(ctx context.Context, client *redis.Client, to, action string) error {
	return client.Del(ctx, mockEmailKey(to, action)).Err()
}
