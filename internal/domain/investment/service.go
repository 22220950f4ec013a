package investment

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, userID int64) ([]*Investment, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: valid user ID is required", ErrInvalidInput)
	}
	return s.repo.ListByUserID(ctx, userID)
}
