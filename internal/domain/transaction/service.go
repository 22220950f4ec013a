package transaction

import (
	"context"
	"time"
)

// Service contains the read and delete operations exposed to clients.
type Service struct {
	repo       Repository
	windowDays int
	now        func() time.Time
}

func NewService(repo Repository, windowDays int) *Service {
	return &Service{repo: repo, windowDays: windowDays, now: time.Now}
}

// List returns the user's transactions between start and end, falling back
// to the default window as described by ParseDateRange.
func (s *Service) List(ctx context.Context, userID int64, start, end string) ([]*Transaction, error) {
	r := ParseDateRange(start, end, s.now(), s.windowDays)
	return s.repo.ListByUserID(ctx, userID, r)
}

// Get returns a transaction owned by the user.
func (s *Service) Get(ctx context.Context, id string, userID int64) (*Transaction, error) {
	tx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.UserID != userID {
		return nil, ErrForbidden
	}
	return tx, nil
}

// Delete removes a transaction owned by the user.
func (s *Service) Delete(ctx context.Context, id string, userID int64) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
