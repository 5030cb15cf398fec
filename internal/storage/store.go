// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/models"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the persistence operations the services need. The
// abstraction allows swapping backends (SQLite, PostgreSQL) without touching
// the service layer.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// ListUsersByIDs resolves display identities in one round trip; IDs
	// without a user are absent from the result, not errors.
	ListUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// Groups
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)
	UpdateGroup(ctx context.Context, group *models.Group) error
	DeleteGroup(ctx context.Context, id string) error
	AddGroupMembers(ctx context.Context, groupID string, userIDs []string) error
	RemoveGroupMember(ctx context.Context, groupID, userID string) error

	// Expenses
	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, id string) (*models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, id string) error
	MarkExpenseSettled(ctx context.Context, id string, settled bool) error
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)
	// ListExpensesForUser returns expenses where the user is a payer,
	// splitter, or creator.
	ListExpensesForUser(ctx context.Context, userID string) ([]*models.Expense, error)
	ListExpenses(ctx context.Context) ([]*models.Expense, error)

	// Transfers
	CreateTransfer(ctx context.Context, transfer *models.Transfer) error
	GetTransfer(ctx context.Context, id string) (*models.Transfer, error)
	DeleteTransfer(ctx context.Context, id string) error
	ListTransfersForUser(ctx context.Context, userID string) ([]*models.Transfer, error)
	ListTransfers(ctx context.Context) ([]*models.Transfer, error)

	// ListUserActivity returns per-user created/settled expense counts for
	// the leaderboard, one row per registered user.
	ListUserActivity(ctx context.Context) ([]ledger.UserActivity, error)

	// Close releases any resources held by the store.
	Close() error
}
