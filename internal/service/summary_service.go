package service

import (
	"context"
	"fmt"
	"time"

	"investment_tracker/internal/interest"
	"investment_tracker/internal/logger"
	"investment_tracker/internal/metrics"
	"investment_tracker/internal/model"
	"investment_tracker/internal/repository"
	"investment_tracker/internal/sms"
	"investment_tracker/internal/utils"

	"github.com/shopspring/decimal"
)

const (
	StageSummary = "summary"
	StageSend    = "send"
)

// SummaryService builds and delivers the monthly interest updates
type SummaryService interface {
	BuildUserSummary(ctx context.Context, userID string) (*model.MonthlySummary, error)
	SendMonthlyUpdates(ctx context.Context) model.BatchResult
}

type summaryService struct {
	users       repository.UserRepository
	investments repository.InvestmentRepository
	sender      sms.Sender
	currency    string
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(users repository.UserRepository, investments repository.InvestmentRepository, sender sms.Sender, currency string) SummaryService {
	return &summaryService{users: users, investments: investments, sender: sender, currency: currency}
}

// BuildUserSummary returns nil, nil when the user has no investments
func (s *summaryService) BuildUserSummary(ctx context.Context, userID string) (*model.MonthlySummary, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for summary: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	investments, err := s.investments.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get investments for summary: %w", err)
	}
	if len(investments) == 0 {
		return nil, nil
	}

	total, monthly := decimal.Zero, decimal.Zero
	for _, inv := range investments {
		total = total.Add(inv.Amount)
		monthly = monthly.Add(interest.Calculate(inv.Amount, inv.InterestRate, 1))
	}

	summary := &model.MonthlySummary{
		UserID:          user.ID,
		Mobile:          user.Mobile,
		TotalInvestment: total,
		MonthlyInterest: monthly,
		TotalAmount:     total.Add(monthly),
	}
	summary.Message = fmt.Sprintf("Monthly Investment Update\nTotal Investment: %s\nThis Month's Interest: %s\nTotal Amount: %s",
		utils.FormatMoney(s.currency, summary.TotalInvestment),
		utils.FormatMoney(s.currency, summary.MonthlyInterest),
		utils.FormatMoney(s.currency, summary.TotalAmount),
	)
	return summary, nil
}

// SendMonthlyUpdates only aborts when the user list cannot be read
func (s *summaryService) SendMonthlyUpdates(ctx context.Context) (result model.BatchResult) {
	result = model.BatchResult{StartedAt: time.Now(), Failures: []model.SummaryFailure{}}
	defer func() {
		result.FinishedAt = time.Now()
		metrics.SummaryBatchDuration.Observe(result.FinishedAt.Sub(result.StartedAt).Seconds())
	}()

	userIDs, err := s.investments.DistinctUserIDs(ctx)
	if err != nil {
		logger.Error("Monthly updates aborted, cannot list users", "error", err)
		result.Err = fmt.Errorf("failed to list users with investments: %w", err)
		return result
	}

	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			logger.Warn("Monthly updates interrupted", "processed", result.Users, "error", err)
			result.Err = err
			return result
		}
		result.Users++

		summary, err := s.BuildUserSummary(ctx, userID)
		if err != nil {
			logger.Error("Error building monthly summary", "user_id", userID, "error", err)
			result.Failures = append(result.Failures, model.SummaryFailure{UserID: userID, Stage: StageSummary, Reason: err.Error()})
			metrics.SummaryUsers.WithLabelValues("failed").Inc()
			continue
		}
		if summary == nil {
			result.Skipped++
			metrics.SummaryUsers.WithLabelValues("skipped").Inc()
			continue
		}

		res := notify(ctx, s.sender, metrics.KindMonthly, summary.Mobile, summary.Message)
		if !res.Delivered {
			result.Failures = append(result.Failures, model.SummaryFailure{UserID: userID, Stage: StageSend, Reason: res.Reason})
			metrics.SummaryUsers.WithLabelValues("failed").Inc()
			continue
		}
		result.Sent++
		metrics.SummaryUsers.WithLabelValues("sent").Inc()
	}

	logger.Info("Monthly updates finished", "users", result.Users, "sent", result.Sent,
		"skipped", result.Skipped, "failed", len(result.Failures))
	return result
}
