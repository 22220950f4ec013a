package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"finsync/internal/domain/account"
)

// AccountRepository implements the account.Repository interface
type AccountRepository struct {
	db *DB
}

var _ account.Repository = (*AccountRepository)(nil)

func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `
	a.id, a.item_id, a.account_id, a.name, a.account_type, a.account_subtype,
	a.available_balance, a.current_balance, a.created_at, i.user_id
`

func (r *AccountRepository) FindByItemAndExternalID(ctx context.Context, itemID, accountID string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts a
		JOIN items i ON i.id = a.item_id
		WHERE a.item_id = $1 AND a.account_id = $2
	`
	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, itemID, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return acc, nil
}

func (r *AccountRepository) Exists(ctx context.Context, key account.Key) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE item_id = $1 AND account_id = $2)`,
		key.ItemID, key.AccountID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check account: %w", err)
	}
	return exists, nil
}

func (r *AccountRepository) InsertBatch(ctx context.Context, accounts []account.NewAccount) ([]*account.Account, error) {
	query := `
		INSERT INTO accounts (id, item_id, account_id, name, account_type, account_subtype,
		                      available_balance, current_balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	return insertBatch(ctx, r.db, accounts, func(ctx context.Context, tx *Tx, n account.NewAccount) (*account.Account, error) {
		acc := &account.Account{
			ID:               uuid.NewString(),
			ItemID:           n.ItemID,
			AccountID:        n.AccountID,
			Name:             n.Name,
			AccountType:      n.AccountType,
			AccountSubtype:   n.AccountSubtype,
			AvailableBalance: n.AvailableBalance,
			CurrentBalance:   n.CurrentBalance,
			CreatedAt:        time.Now().UTC(),
		}
		_, err := tx.ExecContext(ctx, query,
			acc.ID, acc.ItemID, acc.AccountID, acc.Name, acc.AccountType, acc.AccountSubtype,
			acc.AvailableBalance, acc.CurrentBalance, acc.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert account %s: %w", n.AccountID, err)
		}
		return acc, nil
	})
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts a
		JOIN items i ON i.id = a.item_id
		WHERE a.id = $1
	`
	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

func (r *AccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts a
		JOIN items i ON i.id = a.item_id
		WHERE i.user_id = $1
		ORDER BY i.created_at, a.created_at, a.id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []*account.Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

func scanAccount(row scanner) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(
		&acc.ID, &acc.ItemID, &acc.AccountID, &acc.Name, &acc.AccountType, &acc.AccountSubtype,
		&acc.AvailableBalance, &acc.CurrentBalance, &acc.CreatedAt, &acc.UserID,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}
