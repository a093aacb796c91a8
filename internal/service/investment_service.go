package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"investment_tracker/internal/interest"
	"investment_tracker/internal/metrics"
	"investment_tracker/internal/model"
	"investment_tracker/internal/repository"
	"investment_tracker/internal/sms"
	"investment_tracker/internal/utils"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	// NUMERIC(14,2) holds at most twelve integer digits
	maxAmount = decimal.New(1, 12)
)

// moneyScale is the number of decimal places stored for amounts and rates
const moneyScale = 2

func exceedsScale(d decimal.Decimal) bool {
	return !d.Equal(d.Round(moneyScale))
}

// RecordResult is a stored investment with its projected interest
type RecordResult struct {
	Investment *model.Investment `json:"investment"`
	Preview    *model.Preview    `json:"preview"`
	SMS        *sms.Result       `json:"sms,omitempty"` // Only when a confirmation was requested
}

// InvestmentService defines operations for investments and reports
type InvestmentService interface {
	Record(ctx context.Context, req model.CreateInvestmentRequest) (*RecordResult, error)
	Preview(amount, rate decimal.Decimal, months int) (*model.Preview, error)
	ListInvestments(ctx context.Context, userID *string) ([]model.InvestmentWithOwner, error)
	Report(ctx context.Context, filters model.ReportFilters) (*model.Report, error)
	ExportReportCSV(ctx context.Context, filters model.ReportFilters) (*bytes.Buffer, error)
}

type investmentService struct {
	users       repository.UserRepository
	investments repository.InvestmentRepository
	sender      sms.Sender
	currency    string
	now         func() time.Time
}

// NewInvestmentService creates a new InvestmentService
func NewInvestmentService(users repository.UserRepository, investments repository.InvestmentRepository, sender sms.Sender, currency string) InvestmentService {
	return &investmentService{
		users:       users,
		investments: investments,
		sender:      sender,
		currency:    currency,
		now:         time.Now,
	}
}

func validateTerms(amount, rate decimal.Decimal, months int) error {
	if !amount.IsPositive() {
		return invalid("amount must be greater than zero")
	}
	if !amount.LessThan(maxAmount) {
		return invalid("amount must be less than 1000000000000")
	}
	if exceedsScale(amount) {
		return invalid("amount must have at most two decimal places")
	}
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return invalid("interest rate must be between 0 and 100")
	}
	if exceedsScale(rate) {
		return invalid("interest rate must have at most two decimal places")
	}
	if months < 1 {
		return invalid("months must be at least 1")
	}
	return nil
}

func (s *investmentService) Preview(amount, rate decimal.Decimal, months int) (*model.Preview, error) {
	if err := validateTerms(amount, rate, months); err != nil {
		return nil, err
	}
	return &model.Preview{
		Amount:        amount,
		InterestRate:  rate,
		Months:        months,
		TotalInterest: interest.Calculate(amount, rate, months),
		FinalAmount:   interest.Total(amount, rate, months),
	}, nil
}

// Record validates and stores an investment, optionally confirming it by SMS
func (s *investmentService) Record(ctx context.Context, req model.CreateInvestmentRequest) (*RecordResult, error) {
	preview, err := s.Preview(req.Amount, req.InterestRate, req.Months)
	if err != nil {
		return nil, err
	}

	date := s.now()
	if req.Date != nil && strings.TrimSpace(*req.Date) != "" {
		date, err = time.Parse(model.DateLayout, strings.TrimSpace(*req.Date))
		if err != nil {
			return nil, invalid("date must be formatted as YYYY-MM-DD")
		}
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for investment: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	inv := &model.Investment{
		UserID:       user.ID,
		Amount:       req.Amount,
		InterestRate: req.InterestRate,
		Months:       req.Months,
		Date:         date,
	}
	if err := s.investments.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create investment in repo: %w", err)
	}

	result := &RecordResult{Investment: inv, Preview: preview}
	if req.SendSMS {
		res := notify(ctx, s.sender, metrics.KindConfirmation, user.Mobile, s.confirmation(preview))
		result.SMS = &res
	}
	return result, nil
}

func (s *investmentService) confirmation(p *model.Preview) string {
	return fmt.Sprintf("New Investment Registered\nAmount: %s\nInterest Rate: %s%%\nDuration: %d months\nTotal Interest: %s\nFinal Amount: %s",
		utils.FormatMoney(s.currency, p.Amount),
		p.InterestRate.String(),
		p.Months,
		utils.FormatMoney(s.currency, p.TotalInterest),
		utils.FormatMoney(s.currency, p.FinalAmount),
	)
}

func (s *investmentService) ListInvestments(ctx context.Context, userID *string) ([]model.InvestmentWithOwner, error) {
	investments, err := s.investments.FindAllWithOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get investments from repo: %w", err)
	}
	return investments, nil
}

// Report aggregates the selected investments. The timeline is ordered by date ascending,
// the detail rows by the requested column.
func (s *investmentService) Report(ctx context.Context, filters model.ReportFilters) (*model.Report, error) {
	sortBy, order, err := normalizeSort(filters)
	if err != nil {
		return nil, err
	}

	investments, err := s.investments.FindAllWithOwner(ctx, filters.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get investments for report: %w", err)
	}

	report := &model.Report{
		TotalInvestment: decimal.Zero,
		TotalInterest:   decimal.Zero,
		TotalAmount:     decimal.Zero,
		Count:           len(investments),
		Timeline:        make([]model.TimelinePoint, 0, len(investments)),
		Rows:            make([]model.ReportRow, 0, len(investments)),
	}
	for _, inv := range investments {
		row := model.NewReportRow(inv, interest.Calculate(inv.Amount, inv.InterestRate, inv.Months))
		report.TotalInvestment = report.TotalInvestment.Add(row.Amount)
		report.TotalInterest = report.TotalInterest.Add(row.TotalInterest)
		report.TotalAmount = report.TotalAmount.Add(row.TotalAmount)
		report.Rows = append(report.Rows, row)
	}

	chronological := make([]model.ReportRow, len(report.Rows))
	copy(chronological, report.Rows)
	sortRows(chronological, model.SortByDate, model.OrderAsc)
	for _, row := range chronological {
		report.Timeline = append(report.Timeline, model.TimelinePoint{Date: row.Date, Amount: row.Amount, TotalAmount: row.TotalAmount})
	}

	sortRows(report.Rows, sortBy, order)
	return report, nil
}

func normalizeSort(filters model.ReportFilters) (string, string, error) {
	sortBy := strings.ToLower(strings.TrimSpace(filters.SortBy))
	if sortBy == "" {
		sortBy = model.SortByDate
	}
	switch sortBy {
	case model.SortByDate, model.SortByName, model.SortByAmount, model.SortByInterestRate,
		model.SortByMonths, model.SortByTotalInterest, model.SortByTotalAmount:
	default:
		return "", "", invalid("unsupported sort column %q", filters.SortBy)
	}

	order := strings.ToLower(strings.TrimSpace(filters.Order))
	if order == "" {
		order = model.OrderDesc
	}
	if order != model.OrderAsc && order != model.OrderDesc {
		return "", "", invalid("order must be asc or desc")
	}
	return sortBy, order, nil
}

// sortRows is stable and breaks ties by ID in the requested direction
func sortRows(rows []model.ReportRow, sortBy, order string) {
	compare := func(a, b model.ReportRow) int {
		switch sortBy {
		case model.SortByName:
			return strings.Compare(a.Name, b.Name)
		case model.SortByAmount:
			return a.Amount.Cmp(b.Amount)
		case model.SortByInterestRate:
			return a.InterestRate.Cmp(b.InterestRate)
		case model.SortByMonths:
			return a.Months - b.Months
		case model.SortByTotalInterest:
			return a.TotalInterest.Cmp(b.TotalInterest)
		case model.SortByTotalAmount:
			return a.TotalAmount.Cmp(b.TotalAmount)
		default:
			return a.Time().Compare(b.Time())
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		c := compare(rows[i], rows[j])
		if c == 0 {
			c = int(rows[i].ID - rows[j].ID)
		}
		if order == model.OrderAsc {
			return c < 0
		}
		return c > 0
	})
}

// ExportReportCSV writes the report detail table
func (s *investmentService) ExportReportCSV(ctx context.Context, filters model.ReportFilters) (*bytes.Buffer, error) {
	report, err := s.Report(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to build report for CSV export: %w", err)
	}

	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)

	header := []string{"ID", "UserID", "Name", "Date", "Amount", "InterestRate", "Months", "TotalInterest", "TotalAmount"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range report.Rows {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.UserID,
			r.Name,
			r.Date,
			r.Amount.StringFixed(2),
			r.InterestRate.String(),
			strconv.Itoa(r.Months),
			r.TotalInterest.StringFixed(2),
			r.TotalAmount.StringFixed(2),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("error flushing CSV writer: %w", err)
	}

	return buffer, nil
}
