package email

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileEmailSender appends each message to LOG_EMAILS so notifications can be inspected locally.
type FileEmailSender struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewFileEmailSender(path string) (*FileEmailSender, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("email log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("preparing email log %s: %w", path, err)
	}
	return &FileEmailSender{path: path, now: time.Now}, nil
}

func (s *FileEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== %s [%s] to=%s\n", s.now().UTC().Format(time.RFC3339), ActionFor(subject), strings.Join(to, ","))
	fmt.Fprintf(&b, "Subject: %s\n", subject)
	b.Write(rawMessage)
	if len(rawMessage) > 0 && rawMessage[len(rawMessage)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteString("===\n\n")

	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening email log: %w", err)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing email log: %w", err)
	}
	return f.Close()
}
