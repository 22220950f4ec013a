package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"finsync/internal/domain/transaction"
)

// TransactionRepository implements the transaction.Repository interface
type TransactionRepository struct {
	db *DB
}

var _ transaction.Repository = (*TransactionRepository)(nil)

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `
	t.id, t.account_id, t.transaction_id, t.amount, t.date, t.name, t.payment_channel,
	t.primary_category, t.detailed_category, t.created_at, i.user_id
`

const transactionJoins = `
	FROM transactions t
	JOIN accounts a ON a.id = t.account_id
	JOIN items i ON i.id = a.item_id
`

func (r *TransactionRepository) Exists(ctx context.Context, transactionID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM transactions WHERE transaction_id = $1)`, transactionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check transaction: %w", err)
	}
	return exists, nil
}

func (r *TransactionRepository) InsertBatch(ctx context.Context, txs []transaction.NewTransaction) ([]*transaction.Transaction, error) {
	query := `
		INSERT INTO transactions (id, account_id, transaction_id, amount, date, name, payment_channel,
		                          primary_category, detailed_category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	return insertBatch(ctx, r.db, txs, func(ctx context.Context, tx *Tx, n transaction.NewTransaction) (*transaction.Transaction, error) {
		t := &transaction.Transaction{
			ID:               uuid.NewString(),
			AccountID:        n.AccountID,
			TransactionID:    n.TransactionID,
			Amount:           n.Amount,
			Date:             transaction.Date{Time: transaction.Truncate(n.Date)},
			Name:             n.Name,
			PaymentChannel:   n.PaymentChannel,
			PrimaryCategory:  n.PrimaryCategory,
			DetailedCategory: n.DetailedCategory,
			CreatedAt:        time.Now().UTC(),
		}
		_, err := tx.ExecContext(ctx, query,
			t.ID, t.AccountID, t.TransactionID, t.Amount, t.Date.Time, t.Name, t.PaymentChannel,
			t.PrimaryCategory, t.DetailedCategory, t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert transaction %s: %w", n.TransactionID, err)
		}
		return t, nil
	})
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + transactionJoins + `WHERE t.id = $1`

	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, transaction.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) ListByUserID(ctx context.Context, userID int64, dr transaction.DateRange) ([]*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + transactionJoins + `
		WHERE i.user_id = $1 AND t.date >= $2 AND t.date <= $3
		ORDER BY t.date DESC, t.created_at DESC, t.id
	`
	rows, err := r.db.QueryContext(ctx, query, userID, dr.Start, dr.End)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txs := []*transaction.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txs, nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return transaction.ErrTransactionNotFound
	}
	return nil
}

func scanTransaction(row scanner) (*transaction.Transaction, error) {
	var t transaction.Transaction
	var date time.Time
	err := row.Scan(
		&t.ID, &t.AccountID, &t.TransactionID, &t.Amount, &date, &t.Name, &t.PaymentChannel,
		&t.PrimaryCategory, &t.DetailedCategory, &t.CreatedAt, &t.UserID,
	)
	if err != nil {
		return nil, err
	}
	t.Date = transaction.Date{Time: transaction.Truncate(date)}
	return &t, nil
}
