package service

import (
	"context"
	"testing"
	"time"

	"investment_tracker/internal/model"
	"investment_tracker/internal/repository"
	"investment_tracker/internal/sms"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, to, body string) sms.Result {
	args := m.Called(ctx, to, body)
	return args.Get(0).(sms.Result)
}

type terms struct {
	amount, rate string
	months       int
	date         string
}

func seedUser(t *testing.T, store *repository.MemoryStore, id, name, mobile string, investments ...terms) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Users().Create(ctx, &model.User{ID: id, Name: name, Mobile: mobile}))
	for _, tr := range investments {
		date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		if tr.date != "" {
			var err error
			date, err = time.Parse(model.DateLayout, tr.date)
			require.NoError(t, err)
		}
		require.NoError(t, store.Investments().Create(ctx, &model.Investment{
			UserID:       id,
			Amount:       decimal.RequireFromString(tr.amount),
			InterestRate: decimal.RequireFromString(tr.rate),
			Months:       tr.months,
			Date:         date,
		}))
	}
}

// failingInvestments overrides selected reads of a working repository
type failingInvestments struct {
	repository.InvestmentRepository
	listErr    error
	failUserID string
}

func (f *failingInvestments) DistinctUserIDs(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.InvestmentRepository.DistinctUserIDs(ctx)
}

func (f *failingInvestments) FindByUser(ctx context.Context, userID string) ([]model.Investment, error) {
	if userID == f.failUserID {
		return nil, errConnReset
	}
	return f.InvestmentRepository.FindByUser(ctx, userID)
}
