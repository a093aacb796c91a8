package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO layout investments are persisted with
const DateLayout = "2006-01-02"

// Investment is a fixed-rate, monthly-interest investment owned by a user.
// Interest and totals are derived, never stored.
type Investment struct {
	ID           int64           `json:"id"`
	UserID       string          `json:"user_id"`
	Amount       decimal.Decimal `json:"amount"`
	InterestRate decimal.Decimal `json:"interest_rate"` // Percent per month
	Months       int             `json:"months"`
	Date         time.Time       `json:"date"`
}

type investmentJSON struct {
	ID           int64           `json:"id"`
	UserID       string          `json:"user_id"`
	Amount       decimal.Decimal `json:"amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	Months       int             `json:"months"`
	Date         string          `json:"date"`
}

func (i Investment) toJSON() investmentJSON {
	return investmentJSON{
		ID:           i.ID,
		UserID:       i.UserID,
		Amount:       i.Amount,
		InterestRate: i.InterestRate,
		Months:       i.Months,
		Date:         i.Date.Format(DateLayout),
	}
}

// MarshalJSON writes the date in DateLayout
func (i Investment) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.toJSON())
}

// CreateInvestmentRequest is used for recording a new investment
type CreateInvestmentRequest struct {
	UserID       string          `json:"user_id" binding:"required"`
	Amount       decimal.Decimal `json:"amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	Months       int             `json:"months"`
	Date         *string         `json:"date"`     // YYYY-MM-DD, defaults to today
	SendSMS      bool            `json:"send_sms"` // Confirmation SMS to the owner
}

// Preview is the interest an investment accrues over its whole term
type Preview struct {
	Amount        decimal.Decimal `json:"amount"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
	Months        int             `json:"months"`
	TotalInterest decimal.Decimal `json:"total_interest"`
	FinalAmount   decimal.Decimal `json:"final_amount"`
}

// InvestmentWithOwner is an investment joined with its owner's name
type InvestmentWithOwner struct {
	Investment
	Name string `json:"name"`
}

// MarshalJSON keeps the owner name next to the investment fields
func (i InvestmentWithOwner) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		investmentJSON
		Name string `json:"name"`
	}{i.Investment.toJSON(), i.Name})
}
