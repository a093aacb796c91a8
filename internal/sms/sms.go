// Package sms delivers text messages through an SMS provider. Senders never
// return errors: every failure is reported in the Result.
package sms

import (
	"context"

	"investment_tracker/internal/logger"
)

// Result is the outcome of one send
type Result struct {
	Delivered bool   `json:"sent"`
	MessageID string `json:"message_id,omitempty"`
	Reason    string `json:"warning,omitempty"`
}

// Failed builds a failed Result
func Failed(reason string) Result {
	return Result{Reason: reason}
}

// Sender sends a text message to a phone number
type Sender interface {
	Send(ctx context.Context, to, body string) Result
}

// DisabledSender is used when no provider credentials are configured
type DisabledSender struct{}

func (DisabledSender) Send(_ context.Context, to, body string) Result {
	logger.Warn("SMS gateway not configured, message dropped", "to", to, "length", len(body))
	return Failed("sms gateway not configured")
}
