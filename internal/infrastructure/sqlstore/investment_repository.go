package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"finsync/internal/domain/investment"
	"finsync/internal/domain/transaction"
)

// InvestmentRepository implements the investment.Repository interface
type InvestmentRepository struct {
	db *DB
}

var _ investment.Repository = (*InvestmentRepository)(nil)

func NewInvestmentRepository(db *DB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

func (r *InvestmentRepository) Exists(ctx context.Context, key investment.Key) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM investments WHERE account_id = $1 AND security_id = $2)`,
		key.AccountID, key.SecurityID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check investment: %w", err)
	}
	return exists, nil
}

func (r *InvestmentRepository) InsertBatch(ctx context.Context, investments []investment.NewInvestment) ([]*investment.Investment, error) {
	query := `
		INSERT INTO investments (id, account_id, security_id, security_name, security_ticker,
		                         price, price_as_of, cost_basis, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	return insertBatch(ctx, r.db, investments, func(ctx context.Context, tx *Tx, n investment.NewInvestment) (*investment.Investment, error) {
		inv := &investment.Investment{
			ID:             uuid.NewString(),
			AccountID:      n.AccountID,
			SecurityID:     n.SecurityID,
			SecurityName:   n.SecurityName,
			SecurityTicker: n.SecurityTicker,
			Price:          n.Price,
			PriceAsOf:      investment.Date{Time: transaction.Truncate(n.PriceAsOf)},
			CostBasis:      n.CostBasis,
			Quantity:       n.Quantity,
			CreatedAt:      time.Now().UTC(),
		}
		_, err := tx.ExecContext(ctx, query,
			inv.ID, inv.AccountID, inv.SecurityID, inv.SecurityName, inv.SecurityTicker,
			inv.Price, inv.PriceAsOf.Time, inv.CostBasis, inv.Quantity, inv.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert investment %s: %w", n.SecurityID, err)
		}
		return inv, nil
	})
}

func (r *InvestmentRepository) ListByUserID(ctx context.Context, userID int64) ([]*investment.Investment, error) {
	query := `
		SELECT v.id, v.account_id, v.security_id, v.security_name, v.security_ticker,
		       v.price, v.price_as_of, v.cost_basis, v.quantity, v.created_at, i.user_id
		FROM investments v
		JOIN accounts a ON a.id = v.account_id
		JOIN items i ON i.id = a.item_id
		WHERE i.user_id = $1
		ORDER BY i.created_at, v.created_at, v.id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	defer rows.Close()

	out := []*investment.Investment{}
	for rows.Next() {
		var inv investment.Investment
		var asOf time.Time
		if err := rows.Scan(
			&inv.ID, &inv.AccountID, &inv.SecurityID, &inv.SecurityName, &inv.SecurityTicker,
			&inv.Price, &asOf, &inv.CostBasis, &inv.Quantity, &inv.CreatedAt, &inv.UserID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		inv.PriceAsOf = investment.Date{Time: transaction.Truncate(asOf)}
		out = append(out, &inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate investments: %w", err)
	}
	return out, nil
}
