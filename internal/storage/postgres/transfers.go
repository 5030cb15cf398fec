package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// CreateTransfer persists a direct settlement payment.
func (s *PostgresStore) CreateTransfer(ctx context.Context, transfer *models.Transfer) error {
	if transfer.ID == "" {
		transfer.ID = uuid.New().String()
	}
	if transfer.CreatedAt == 0 {
		transfer.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO transfers (id, payer_id, receiver_id, amount, note, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		transfer.ID, transfer.PayerID, transfer.ReceiverID, transfer.Amount.StringFixed(2),
		transfer.Note, transfer.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transfer: %w", err)
	}
	return nil
}

// GetTransfer retrieves a transfer by ID.
func (s *PostgresStore) GetTransfer(ctx context.Context, id string) (*models.Transfer, error) {
	transfers, err := s.queryTransfers(ctx, "WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(transfers) == 0 {
		return nil, storage.ErrNotFound
	}
	return transfers[0], nil
}

// DeleteTransfer removes a transfer.
func (s *PostgresStore) DeleteTransfer(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transfers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete transfer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListTransfersForUser retrieves transfers where the user is payer or
// receiver, newest first.
func (s *PostgresStore) ListTransfersForUser(ctx context.Context, userID string) ([]*models.Transfer, error) {
	return s.queryTransfers(ctx,
		"WHERE payer_id = $1 OR receiver_id = $1 ORDER BY created_at DESC", userID,
	)
}

// ListTransfers retrieves every transfer, oldest first.
func (s *PostgresStore) ListTransfers(ctx context.Context) ([]*models.Transfer, error) {
	return s.queryTransfers(ctx, "ORDER BY created_at ASC")
}

func (s *PostgresStore) queryTransfers(ctx context.Context, clause string, args ...any) ([]*models.Transfer, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, payer_id, receiver_id, amount, note, created_at FROM transfers "+clause,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*models.Transfer
	for rows.Next() {
		transfer := &models.Transfer{}
		var amount string
		if err := rows.Scan(&transfer.ID, &transfer.PayerID, &transfer.ReceiverID,
			&amount, &transfer.Note, &transfer.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		if transfer.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt amount for transfer %s: %w", transfer.ID, err)
		}
		transfers = append(transfers, transfer)
	}
	return transfers, rows.Err()
}
