package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"finsync/internal/domain/institution"
)

// InstitutionRepository implements institution.Repository
type InstitutionRepository struct {
	db *DB
}

var _ institution.Repository = (*InstitutionRepository)(nil)

func NewInstitutionRepository(db *DB) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

// FindOrCreate inserts unless the external id is already stored, then reads
// the row back, so concurrent linkers converge on one institution.
func (r *InstitutionRepository) FindOrCreate(ctx context.Context, institutionID, name string) (*institution.Institution, error) {
	query := `
		INSERT INTO institutions (id, institution_id, name, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (institution_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), institutionID, name, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to create institution: %w", err)
	}

	inst, err := r.scanOne(ctx, `
		SELECT id, institution_id, name, created_at
		FROM institutions
		WHERE institution_id = $1
	`, institutionID)
	if err != nil {
		return nil, err
	}
	return inst, nil
}

func (r *InstitutionRepository) GetByID(ctx context.Context, id string) (*institution.Institution, error) {
	return r.scanOne(ctx, `
		SELECT id, institution_id, name, created_at
		FROM institutions
		WHERE id = $1
	`, id)
}

func (r *InstitutionRepository) GetByAccountID(ctx context.Context, accountID string) (*institution.Institution, error) {
	return r.scanOne(ctx, `
		SELECT ins.id, ins.institution_id, ins.name, ins.created_at
		FROM accounts a
		JOIN items i ON i.id = a.item_id
		JOIN institutions ins ON ins.id = i.institution_id
		WHERE a.id = $1
	`, accountID)
}

func (r *InstitutionRepository) scanOne(ctx context.Context, query string, arg any) (*institution.Institution, error) {
	var inst institution.Institution
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&inst.ID, &inst.InstitutionID, &inst.Name, &inst.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, institution.ErrInstitutionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get institution: %w", err)
	}
	return &inst, nil
}
