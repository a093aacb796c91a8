package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"investment_tracker/internal/model"
	"investment_tracker/internal/scheduler"
	"investment_tracker/internal/service"
	"investment_tracker/internal/sms"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, req model.UserRequest) (*model.User, sms.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Get(1).(sms.Result), args.Error(2)
	}
	return args.Get(0).(*model.User), args.Get(1).(sms.Result), args.Error(2)
}

func (m *MockUserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id string, req model.UserRequest) (*model.User, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockInvestmentService struct {
	mock.Mock
}

func (m *MockInvestmentService) Record(ctx context.Context, req model.CreateInvestmentRequest) (*service.RecordResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecordResult), args.Error(1)
}

func (m *MockInvestmentService) Preview(amount, rate decimal.Decimal, months int) (*model.Preview, error) {
	args := m.Called(amount.String(), rate.String(), months)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Preview), args.Error(1)
}

func (m *MockInvestmentService) ListInvestments(ctx context.Context, userID *string) ([]model.InvestmentWithOwner, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InvestmentWithOwner), args.Error(1)
}

func (m *MockInvestmentService) Report(ctx context.Context, filters model.ReportFilters) (*model.Report, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockInvestmentService) ExportReportCSV(ctx context.Context, filters model.ReportFilters) (*bytes.Buffer, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bytes.Buffer), args.Error(1)
}

type MockSummaryService struct {
	mock.Mock
}

func (m *MockSummaryService) BuildUserSummary(ctx context.Context, userID string) (*model.MonthlySummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MonthlySummary), args.Error(1)
}

func (m *MockSummaryService) SendMonthlyUpdates(ctx context.Context) model.BatchResult {
	return m.Called(ctx).Get(0).(model.BatchResult)
}

type MockTrigger struct {
	mock.Mock
}

func (m *MockTrigger) TriggerNow(ctx context.Context) (model.BatchResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.BatchResult), args.Error(1)
}

func (m *MockTrigger) Status() scheduler.Status {
	return m.Called().Get(0).(scheduler.Status)
}

func passThrough(c *gin.Context) { c.Next() }

func newTestRouter() (*gin.Engine, *gin.RouterGroup) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	return r, r.Group("/api/v1")
}

func perform(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeMap(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return out
}
