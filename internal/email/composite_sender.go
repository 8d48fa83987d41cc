package email

import (
	"context"
	"errors"
	"fmt"
)

// CompositeEmailSender delivers through a primary sender and mirrors to any extra sinks.
type CompositeEmailSender struct {
	senders []Sender
}

func NewCompositeEmailSender(senders ...Sender) *CompositeEmailSender {
	cs := &CompositeEmailSender{}
	for _, s := range senders {
		cs.AddSender(s)
	}
	return cs
}

// AddSender ignores nil senders.
func (cs *CompositeEmailSender) AddSender(sender Sender) {
	if sender == nil {
		return
	}
	cs.senders = append(cs.senders, sender)
}

// Send tries every sender; one failing sink does not stop the others.
func (cs *CompositeEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if len(cs.senders) == 0 {
		return errors.New("email: no sender configured")
	}

	errs := make([]error, 0, len(cs.senders))
	for i, sender := range cs.senders {
		if err := sender.Send(ctx, to, subject, rawMessage); err != nil {
			errs = append(errs, fmt.Errorf("sender %d (%T): %w", i, sender, err))
		}
	}
	return errors.Join(errs...)
}
