package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlySummary is the one-month interest snapshot across all of a user's investments
type MonthlySummary struct {
	UserID          string          `json:"user_id"`
	Mobile          string          `json:"mobile"`
	TotalInvestment decimal.Decimal `json:"total_investment"`
	MonthlyInterest decimal.Decimal `json:"monthly_interest"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Message         string          `json:"message"`
}

// SummaryFailure records why one user's monthly update was not delivered
type SummaryFailure struct {
	UserID string `json:"user_id"`
	Stage  string `json:"stage"` // "summary" or "send"
	Reason string `json:"reason"`
}

// BatchResult is the outcome of one monthly update run
type BatchResult struct {
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Users      int              `json:"users"`
	Sent       int              `json:"sent"`
	Skipped    int              `json:"skipped"`
	Failures   []SummaryFailure `json:"failures"`
	Err        error            `json:"-"`
}
