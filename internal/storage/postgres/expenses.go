package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

const (
	rolePayer    = "payer"
	roleSplitter = "splitter"
)

// CreateExpense persists an expense with its payer and splitter shares.
func (s *PostgresStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertExpense(ctx, tx, expense); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateExpense replaces an expense and its shares.
func (s *PostgresStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = $1", expense.ID)
	if err != nil {
		return fmt.Errorf("failed to replace expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}

	if err := insertExpense(ctx, tx, expense); err != nil {
		return err
	}
	return tx.Commit()
}

func insertExpense(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	var groupID any
	if expense.GroupID != "" {
		groupID = expense.GroupID
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, description, amount, category, created_by, settled, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		expense.ID, groupID, expense.Description, expense.Amount.StringFixed(2),
		expense.Category, expense.CreatedBy, expense.Settled, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	insertShares := func(role string, shares []models.Share) error {
		for _, share := range shares {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO expense_shares (expense_id, user_id, role, amount) VALUES ($1, $2, $3, $4)",
				expense.ID, share.UserID, role, share.Amount.StringFixed(2),
			)
			if err != nil {
				return fmt.Errorf("failed to insert %s share: %w", role, err)
			}
		}
		return nil
	}
	if err := insertShares(rolePayer, expense.Payers); err != nil {
		return err
	}
	return insertShares(roleSplitter, expense.Splitters)
}

// GetExpense retrieves an expense with all its shares.
func (s *PostgresStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	expenses, err := s.queryExpenses(ctx, "WHERE e.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, storage.ErrNotFound
	}
	return expenses[0], nil
}

// DeleteExpense removes an expense; shares cascade.
func (s *PostgresStore) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// MarkExpenseSettled flips the settled flag.
func (s *PostgresStore) MarkExpenseSettled(ctx context.Context, id string, settled bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE expenses SET settled = $1 WHERE id = $2", settled, id)
	if err != nil {
		return fmt.Errorf("failed to mark expense settled: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListExpensesByGroup retrieves all expenses scoped to a group.
func (s *PostgresStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.queryExpenses(ctx, "WHERE e.group_id = $1 ORDER BY e.created_at DESC", groupID)
}

// ListExpensesForUser retrieves expenses where the user appears as payer,
// splitter, or creator.
func (s *PostgresStore) ListExpensesForUser(ctx context.Context, userID string) ([]*models.Expense, error) {
	return s.queryExpenses(ctx,
		`WHERE e.created_by = $1 OR e.id IN (SELECT expense_id FROM expense_shares WHERE user_id = $1)
		 ORDER BY e.created_at DESC`,
		userID,
	)
}

// ListExpenses retrieves every expense, oldest first. Used to prime the
// balance cache at startup.
func (s *PostgresStore) ListExpenses(ctx context.Context) ([]*models.Expense, error) {
	return s.queryExpenses(ctx, "ORDER BY e.created_at ASC")
}

func (s *PostgresStore) queryExpenses(ctx context.Context, clause string, args ...any) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT e.id, e.group_id, e.description, e.amount, e.category, e.created_by, e.settled, e.created_at FROM expenses e "+clause,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense := &models.Expense{}
		var groupID sql.NullString
		var amount string
		if err := rows.Scan(&expense.ID, &groupID, &expense.Description, &amount,
			&expense.Category, &expense.CreatedBy, &expense.Settled, &expense.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expense.GroupID = groupID.String
		if expense.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt amount for expense %s: %w", expense.ID, err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for _, expense := range expenses {
		if err := s.loadShares(ctx, expense); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

func (s *PostgresStore) loadShares(ctx context.Context, expense *models.Expense) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, role, amount FROM expense_shares WHERE expense_id = $1 ORDER BY user_id",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID, role, amount string
		if err := rows.Scan(&userID, &role, &amount); err != nil {
			return fmt.Errorf("failed to scan share: %w", err)
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return fmt.Errorf("corrupt share amount for expense %s: %w", expense.ID, err)
		}
		share := models.Share{UserID: userID, Amount: value}
		if role == rolePayer {
			expense.Payers = append(expense.Payers, share)
		} else {
			expense.Splitters = append(expense.Splitters, share)
		}
	}
	return rows.Err()
}

// ListUserActivity aggregates per-user expense counts for the leaderboard.
func (s *PostgresStore) ListUserActivity(ctx context.Context) ([]ledger.UserActivity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.display_name, u.image_url,
		        COUNT(e.id), COALESCE(SUM(CASE WHEN e.settled THEN 1 ELSE 0 END), 0)
		 FROM users u LEFT JOIN expenses e ON e.created_by = u.id
		 GROUP BY u.id, u.display_name, u.image_url
		 ORDER BY u.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query user activity: %w", err)
	}
	defer rows.Close()

	var activity []ledger.UserActivity
	for rows.Next() {
		var a ledger.UserActivity
		if err := rows.Scan(&a.UserID, &a.Name, &a.ImageURL, &a.ExpensesCreated, &a.ExpensesSettled); err != nil {
			return nil, fmt.Errorf("failed to scan user activity: %w", err)
		}
		activity = append(activity, a)
	}
	return activity, rows.Err()
}
