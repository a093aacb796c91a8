package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"investment_tracker/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// InvestmentRepository defines operations for investment data
type InvestmentRepository interface {
	Create(ctx context.Context, investment *model.Investment) error
	FindByUser(ctx context.Context, userID string) ([]model.Investment, error)
	FindAllWithOwner(ctx context.Context, userID *string) ([]model.InvestmentWithOwner, error)
	DistinctUserIDs(ctx context.Context) ([]string, error)
}

type investmentRepository struct {
	db DB
}

// NewInvestmentRepository creates a new InvestmentRepository
func NewInvestmentRepository(db DB) InvestmentRepository {
	return &investmentRepository{db: db}
}

// Create inserts a new investment and sets its assigned ID
func (r *investmentRepository) Create(ctx context.Context, inv *model.Investment) error {
	sql := `INSERT INTO investments (user_id, amount, interest_rate, months, date) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := r.db.QueryRow(ctx, sql,
		inv.UserID, inv.Amount.InexactFloat64(), inv.InterestRate.InexactFloat64(), inv.Months, inv.Date.Format(model.DateLayout),
	).Scan(&inv.ID)
	if err != nil {
		return fmt.Errorf("failed to create investment: %w", err)
	}
	return nil
}

// FindByUser retrieves every investment owned by a user
func (r *investmentRepository) FindByUser(ctx context.Context, userID string) ([]model.Investment, error) {
	sql := `SELECT id, user_id, amount, interest_rate, months, date FROM investments WHERE user_id = $1 ORDER BY id`
	rows, err := r.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query investments by user: %w", err)
	}
	defer rows.Close()

	investments := []model.Investment{}
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		investments = append(investments, inv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investment rows: %w", err)
	}
	return investments, nil
}

// FindAllWithOwner retrieves investments joined with the owner's name, optionally for one user
func (r *investmentRepository) FindAllWithOwner(ctx context.Context, userID *string) ([]model.InvestmentWithOwner, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT i.id, i.user_id, i.amount, i.interest_rate, i.months, i.date, u.name FROM investments i JOIN users u ON i.user_id = u.user_id`)
	args := []any{}

	if userID != nil && *userID != "" {
		queryBuilder.WriteString(" WHERE i.user_id = $1")
		args = append(args, *userID)
	}
	queryBuilder.WriteString(" ORDER BY i.date DESC, i.id DESC")

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query investments with owner: %w", err)
	}
	defer rows.Close()

	result := []model.InvestmentWithOwner{}
	for rows.Next() {
		var (
			row          model.InvestmentWithOwner
			amount, rate float64
			date         string
		)
		if err := rows.Scan(&row.ID, &row.UserID, &amount, &rate, &row.Months, &date, &row.Name); err != nil {
			return nil, fmt.Errorf("failed to scan investment row for report: %w", err)
		}
		if err := fillInvestment(&row.Investment, amount, rate, date); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report rows: %w", err)
	}
	return result, nil
}

// DistinctUserIDs lists every user that owns at least one investment
func (r *investmentRepository) DistinctUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT user_id FROM investments ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query investment owners: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan investment owner: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investment owners: %w", err)
	}
	return ids, nil
}

func scanInvestment(rows pgx.Rows) (model.Investment, error) {
	var (
		inv          model.Investment
		amount, rate float64
		date         string
	)
	if err := rows.Scan(&inv.ID, &inv.UserID, &amount, &rate, &inv.Months, &date); err != nil {
		return inv, fmt.Errorf("failed to scan investment row: %w", err)
	}
	if err := fillInvestment(&inv, amount, rate, date); err != nil {
		return inv, err
	}
	return inv, nil
}

func fillInvestment(inv *model.Investment, amount, rate float64, date string) error {
	parsed, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return fmt.Errorf("invalid date %q on investment %d: %w", date, inv.ID, err)
	}
	inv.Amount = decimal.NewFromFloat(amount)
	inv.InterestRate = decimal.NewFromFloat(rate)
	inv.Date = parsed
	return nil
}
