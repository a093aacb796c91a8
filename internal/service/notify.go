package service

import (
	"context"

	"investment_tracker/internal/logger"
	"investment_tracker/internal/metrics"
	"investment_tracker/internal/sms"
)

// notify sends one message and records the outcome. A failed send never fails the caller.
func notify(ctx context.Context, sender sms.Sender, kind, to, body string) sms.Result {
	res := sender.Send(ctx, to, body)
	metrics.ObserveSMS(kind, res.Delivered)
	if !res.Delivered {
		logger.Warn("SMS not delivered", "kind", kind, "to", to, "reason", res.Reason)
	}
	return res
}
