package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SortByDate          = "date"
	SortByName          = "name"
	SortByAmount        = "amount"
	SortByInterestRate  = "interest_rate"
	SortByMonths        = "months"
	SortByTotalInterest = "total_interest"
	SortByTotalAmount   = "total_amount"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ReportFilters narrows and orders the report detail table
type ReportFilters struct {
	UserID *string
	SortBy string
	Order  string
}

// ReportRow is one line of the detail table
type ReportRow struct {
	ID            int64           `json:"id"`
	UserID        string          `json:"user_id"`
	Name          string          `json:"name"`
	Date          string          `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
	Months        int             `json:"months"`
	TotalInterest decimal.Decimal `json:"total_interest"`
	TotalAmount   decimal.Decimal `json:"total_amount"`

	date time.Time
}

// NewReportRow keeps the parsed date for ordering
func NewReportRow(inv InvestmentWithOwner, totalInterest decimal.Decimal) ReportRow {
	return ReportRow{
		ID:            inv.ID,
		UserID:        inv.UserID,
		Name:          inv.Name,
		Date:          inv.Date.Format(DateLayout),
		Amount:        inv.Amount,
		InterestRate:  inv.InterestRate,
		Months:        inv.Months,
		TotalInterest: totalInterest,
		TotalAmount:   inv.Amount.Add(totalInterest),
		date:          inv.Date,
	}
}

// Time returns the investment date of the row
func (r ReportRow) Time() time.Time {
	return r.date
}

// TimelinePoint is one sample of the principal vs. total value series
type TimelinePoint struct {
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Report holds the aggregate totals, the chart series and the detail table
type Report struct {
	TotalInvestment decimal.Decimal `json:"total_investment"`
	TotalInterest   decimal.Decimal `json:"total_interest"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Count           int             `json:"count"`
	Timeline        []TimelinePoint `json:"timeline"`
	Rows            []ReportRow     `json:"rows"`
}
