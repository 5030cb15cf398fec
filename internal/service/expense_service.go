package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tallyhq/tally/internal/events"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// ExpenseService owns the ledger write path: expenses and transfers are
// validated hard at this boundary, persisted, and announced on the event bus
// with their normalized entries so the balance cache stays current.
type ExpenseService struct {
	store  storage.Store
	bus    *events.Bus
	logger *slog.Logger
}

// NewExpenseService creates a new expense service.
func NewExpenseService(store storage.Store, bus *events.Bus, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{
		store:  store,
		bus:    bus,
		logger: logger,
	}
}

// CreateExpense validates and persists a new expense created by userID.
// Participants who are not yet members of the target group are added to it.
func (s *ExpenseService) CreateExpense(ctx context.Context, userID string, expense *models.Expense) error {
	expense.CreatedBy = userID
	if err := ledger.ValidateExpense(expense); err != nil {
		return err
	}

	if expense.GroupID != "" {
		if err := s.ensureMembers(ctx, expense); err != nil {
			return err
		}
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	s.logger.Info("Expense created", "expense_id", expense.ID, "user_id", userID, "amount", expense.Amount)
	s.publishExpense(events.TypeExpenseCreated, expense)
	return nil
}

// GetExpense retrieves one expense.
func (s *ExpenseService) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

// UpdateExpense replaces an expense. Only the creator may update.
func (s *ExpenseService) UpdateExpense(ctx context.Context, userID string, expense *models.Expense) error {
	existing, err := s.store.GetExpense(ctx, expense.ID)
	if err != nil {
		return err
	}
	if existing.CreatedBy != userID {
		return ErrForbidden
	}

	expense.CreatedBy = existing.CreatedBy
	if expense.CreatedAt == 0 {
		expense.CreatedAt = existing.CreatedAt
	}
	if err := ledger.ValidateExpense(expense); err != nil {
		return err
	}
	if expense.GroupID != "" {
		if err := s.ensureMembers(ctx, expense); err != nil {
			return err
		}
	}

	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}

	s.logger.Info("Expense updated", "expense_id", expense.ID, "user_id", userID)
	s.publishExpense(events.TypeExpenseUpdated, expense)
	return nil
}

// DeleteExpense removes an expense. Only the creator may delete.
func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, id string) error {
	existing, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if existing.CreatedBy != userID {
		return ErrForbidden
	}

	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	s.logger.Info("Expense deleted", "expense_id", id, "user_id", userID)
	s.bus.Publish(events.New(events.TypeExpenseDeleted, id, userID, nil))
	return nil
}

// SettleExpense flips the settled flag. Any participant or the creator may
// settle; the flag never changes balances, only the leaderboard.
func (s *ExpenseService) SettleExpense(ctx context.Context, userID, id string, settled bool) error {
	existing, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if existing.CreatedBy != userID && !isParticipant(existing, userID) {
		return ErrForbidden
	}

	if err := s.store.MarkExpenseSettled(ctx, id, settled); err != nil {
		return fmt.Errorf("failed to settle expense: %w", err)
	}

	s.logger.Info("Expense settled flag changed", "expense_id", id, "user_id", userID, "settled", settled)
	s.bus.Publish(events.New(events.TypeExpenseSettled, id, userID, nil))
	return nil
}

// ListGroupExpenses retrieves the expenses of one group.
func (s *ExpenseService) ListGroupExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.store.ListExpensesByGroup(ctx, groupID)
}

// ListUserExpenses retrieves the expenses the user participates in.
func (s *ExpenseService) ListUserExpenses(ctx context.Context, userID string) ([]*models.Expense, error) {
	return s.store.ListExpensesForUser(ctx, userID)
}

// CreateTransfer records a direct settlement payment. The acting user must
// be one side of the transfer.
func (s *ExpenseService) CreateTransfer(ctx context.Context, userID string, transfer *models.Transfer) error {
	if !transfer.Amount.IsPositive() {
		return fmt.Errorf("%w: transfer amount must be positive", ErrInvalidInput)
	}
	if transfer.PayerID == transfer.ReceiverID {
		return fmt.Errorf("%w: payer and receiver must differ", ErrInvalidInput)
	}
	if userID != transfer.PayerID && userID != transfer.ReceiverID {
		return ErrForbidden
	}

	if err := s.store.CreateTransfer(ctx, transfer); err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}

	s.logger.Info("Transfer created", "transfer_id", transfer.ID, "user_id", userID, "amount", transfer.Amount)
	entries, _ := ledger.Normalize(nil, []*models.Transfer{transfer})
	s.bus.Publish(events.New(events.TypeTransferCreated, transfer.ID, userID, entries))
	return nil
}

// DeleteTransfer removes a transfer. Either side may delete it.
func (s *ExpenseService) DeleteTransfer(ctx context.Context, userID, id string) error {
	existing, err := s.store.GetTransfer(ctx, id)
	if err != nil {
		return err
	}
	if userID != existing.PayerID && userID != existing.ReceiverID {
		return ErrForbidden
	}

	if err := s.store.DeleteTransfer(ctx, id); err != nil {
		return fmt.Errorf("failed to delete transfer: %w", err)
	}

	s.logger.Info("Transfer deleted", "transfer_id", id, "user_id", userID)
	s.bus.Publish(events.New(events.TypeTransferDeleted, id, userID, nil))
	return nil
}

// ListUserTransfers retrieves transfers the user is part of.
func (s *ExpenseService) ListUserTransfers(ctx context.Context, userID string) ([]*models.Transfer, error) {
	return s.store.ListTransfersForUser(ctx, userID)
}

// ensureMembers adds expense participants to the owning group so the
// membership-validity rule keeps their group balances visible.
func (s *ExpenseService) ensureMembers(ctx context.Context, expense *models.Expense) error {
	group, err := s.store.GetGroup(ctx, expense.GroupID)
	if err != nil {
		return err
	}

	var missing []string
	for _, id := range expense.ParticipantIDs() {
		if !group.HasMember(id) {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	s.logger.Info("Adding expense participants to group", "group_id", group.ID, "user_ids", missing)
	if err := s.store.AddGroupMembers(ctx, group.ID, missing); err != nil {
		return fmt.Errorf("failed to add participants to group: %w", err)
	}
	return nil
}

func (s *ExpenseService) publishExpense(eventType string, expense *models.Expense) {
	// Validation already passed, so normalization cannot fail here.
	entries, _ := ledger.Normalize([]*models.Expense{expense}, nil)
	s.bus.Publish(events.New(eventType, expense.ID, expense.CreatedBy, entries))
}

func isParticipant(expense *models.Expense, userID string) bool {
	for _, id := range expense.ParticipantIDs() {
		if id == userID {
			return true
		}
	}
	return false
}
