package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"finsync/internal/domain/item"
)

// TokenCipher seals access tokens at rest.
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// ItemRepository implements item.Repository. Access tokens are encrypted on
// write and decrypted on read.
type ItemRepository struct {
	db     *DB
	cipher TokenCipher
}

var _ item.Repository = (*ItemRepository)(nil)

func NewItemRepository(db *DB, cipher TokenCipher) *ItemRepository {
	return &ItemRepository{db: db, cipher: cipher}
}

const itemColumns = `
	i.id, i.user_id, i.institution_id, ins.institution_id, ins.name, i.item_id, i.access_token, i.created_at
`

func (r *ItemRepository) Create(ctx context.Context, n item.NewItem) (*item.Item, error) {
	sealed, err := r.cipher.Encrypt(n.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	it := &item.Item{
		ID:            uuid.NewString(),
		UserID:        n.UserID,
		InstitutionID: n.InstitutionID,
		ItemID:        n.ItemID,
		AccessToken:   n.AccessToken,
		CreatedAt:     time.Now().UTC(),
	}

	query := `
		INSERT INTO items (id, user_id, institution_id, item_id, access_token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.ExecContext(ctx, query, it.ID, it.UserID, it.InstitutionID, it.ItemID, sealed, it.CreatedAt)
	if isUniqueViolation(err) {
		return nil, item.ErrItemExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return it, nil
}

func (r *ItemRepository) GetByID(ctx context.Context, id string) (*item.Item, error) {
	query := `SELECT ` + itemColumns + `
		FROM items i
		JOIN institutions ins ON ins.id = i.institution_id
		WHERE i.id = $1
	`
	it, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, item.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return it, nil
}

func (r *ItemRepository) ListByUserID(ctx context.Context, userID int64) ([]*item.Item, error) {
	query := `SELECT ` + itemColumns + `
		FROM items i
		JOIN institutions ins ON ins.id = i.institution_id
		WHERE i.user_id = $1
		ORDER BY i.created_at, i.id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*item.Item
	for rows.Next() {
		it, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

func (r *ItemRepository) ExistsForInstitution(ctx context.Context, userID int64, institutionID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM items WHERE user_id = $1 AND institution_id = $2)`,
		userID, institutionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check item: %w", err)
	}
	return exists, nil
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return item.ErrItemNotFound
	}
	return nil
}

func (r *ItemRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM items ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *ItemRepository) scan(row scanner) (*item.Item, error) {
	var it item.Item
	var sealed string
	err := row.Scan(
		&it.ID, &it.UserID, &it.InstitutionID, &it.ExternalInstitutionID,
		&it.InstitutionName, &it.ItemID, &sealed, &it.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if it.AccessToken, err = r.cipher.Decrypt(sealed); err != nil {
		return nil, fmt.Errorf("failed to decrypt access token for item %s: %w", it.ItemID, err)
	}
	return &it, nil
}
