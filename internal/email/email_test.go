package email

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	calls int
	err   error
}

func (r *recordingSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	r.calls++
	return r.err
}

func TestBuildMessage(t *testing.T) {
	date := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	msg := string(BuildMessage("noreply@example.com", []string{"agent@example.com"}, "Hi", "line one\nline two\n", date))

	assert.Contains(t, msg, "To: agent@example.com\r\n")
	assert.Contains(t, msg, "From: noreply@example.com\r\n")
	assert.Contains(t, msg, "Subject: Hi\r\n")
	assert.Contains(t, msg, "Date: Wed, 01 May 2024 10:00:00 +0000\r\n")
	assert.Contains(t, msg, "\r\n\r\nline one\r\nline two\r\n")
}

func TestBuildMessage_HeaderValuesStayOnOneLine(t *testing.T) {
	msg := string(BuildMessage("noreply@example.com", []string{"agent@example.com"}, "Villa\r\nBcc: victim@example.com", "body", time.Now()))

	assert.Contains(t, msg, "Subject: Villa Bcc: victim@example.com\r\n")
	assert.NotContains(t, msg, "\r\nBcc:")
}

func TestRenderEnquiryNotification_FlattensTitle(t *testing.T) {
	subject, _, err := RenderEnquiryNotification(EnquiryNotification{AgentName: "A", PropertyTitle: "Villa\nKipé\r"})
	require.NoError(t, err)
	assert.Equal(t, "New enquiry about Villa Kipé", subject)
}

func TestRenderEnquiryNotification(t *testing.T) {
	subject, body, err := RenderEnquiryNotification(EnquiryNotification{
		AppName:       "Estates",
		AgentName:     "Aminata",
		PropertyTitle: "Villa in Kipé",
		SenderName:    "Moussa",
		SenderPhone:   "+224620000000",
		Message:       "Is it still available?",
	})
	require.NoError(t, err)

	assert.Equal(t, "New enquiry about Villa in Kipé", subject)
	assert.Equal(t, ActionEnquiryNotify, ActionFor(subject))
	assert.Contains(t, body, "Hello Aminata")
	assert.Contains(t, body, "Is it still available?")
	assert.Contains(t, body, "Phone: +224620000000")
	assert.NotContains(t, body, "Email:")
}

func TestActionFor_Unknown(t *testing.T) {
	assert.Equal(t, ActionUnknown, ActionFor("Welcome"))
}

func TestCompositeEmailSender_CallsAllAndJoinsErrors(t *testing.T) {
	ok := &recordingSender{}
	failing := &recordingSender{err: errors.New("smtp down")}
	cs := NewCompositeEmailSender(failing)
	cs.AddSender(ok)
	cs.AddSender(nil)

	err := cs.Send(context.Background(), []string{"a@example.com"}, "s", []byte("m"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, failing.calls)

	assert.Error(t, NewCompositeEmailSender().Send(context.Background(), nil, "s", nil))
}

func TestFileEmailSender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mail", "emails.log")
	s, err := NewFileEmailSender(path)
	require.NoError(t, err)

	require.NoError(t, s.Send(context.Background(), []string{"a@example.com"}, "First", []byte("body one\n")))
	require.NoError(t, s.Send(context.Background(), []string{"b@example.com"}, "Second", []byte("body two\n")))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Subject: First")
	assert.Contains(t, string(content), "body two")

	_, err = NewFileEmailSender("  ")
	assert.Error(t, err)
}

func TestLoggingSender(t *testing.T) {
	assert.NoError(t, NewLoggingSender(zap.NewNop()).Send(context.Background(), []string{"a@example.com"}, "s", []byte("m")))
}
