package account

import (
	"context"
	"errors"
	"testing"
)

// MockRepository is a mock implementation of Repository interface
type MockRepository struct {
	FindByItemAndExternalIDFunc func(ctx context.Context, itemID, accountID string) (*Account, error)
	ExistsFunc                  func(ctx context.Context, key Key) (bool, error)
	InsertBatchFunc             func(ctx context.Context, accounts []NewAccount) ([]*Account, error)
	GetByIDFunc                 func(ctx context.Context, id string) (*Account, error)
	ListByUserIDFunc            func(ctx context.Context, userID int64) ([]*Account, error)
}

func (m *MockRepository) FindByItemAndExternalID(ctx context.Context, itemID, accountID string) (*Account, error) {
	if m.FindByItemAndExternalIDFunc != nil {
		return m.FindByItemAndExternalIDFunc(ctx, itemID, accountID)
	}
	return nil, ErrAccountNotFound
}

func (m *MockRepository) Exists(ctx context.Context, key Key) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, key)
	}
	return false, nil
}

func (m *MockRepository) InsertBatch(ctx context.Context, accounts []NewAccount) ([]*Account, error) {
	if m.InsertBatchFunc != nil {
		return m.InsertBatchFunc(ctx, accounts)
	}
	return nil, nil
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrAccountNotFound
}

func (m *MockRepository) ListByUserID(ctx context.Context, userID int64) ([]*Account, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func TestGetAccount(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  int64
		mock    *MockRepository
		wantErr error
	}{
		{
			name:   "owner",
			userID: 1,
			mock: &MockRepository{
				GetByIDFunc: func(ctx context.Context, id string) (*Account, error) {
					return &Account{ID: id, UserID: 1}, nil
				},
			},
		},
		{
			name:   "other user",
			userID: 2,
			mock: &MockRepository{
				GetByIDFunc: func(ctx context.Context, id string) (*Account, error) {
					return &Account{ID: id, UserID: 1}, nil
				},
			},
			wantErr: ErrForbidden,
		},
		{
			name:    "not found",
			userID:  1,
			mock:    &MockRepository{},
			wantErr: ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.mock)
			acc, err := svc.GetAccount(ctx, "acc-1", tt.userID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetAccount() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && acc.ID != "acc-1" {
				t.Errorf("GetAccount() returned %+v", acc)
			}
		})
	}
}

func TestListAccountsByUserID(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&MockRepository{
		ListByUserIDFunc: func(ctx context.Context, userID int64) ([]*Account, error) {
			return []*Account{{ID: "a", UserID: userID}, {ID: "b", UserID: userID}}, nil
		},
	})

	accounts, err := svc.ListAccountsByUserID(ctx, 7)
	if err != nil {
		t.Fatalf("ListAccountsByUserID() failed: %v", err)
	}
	if len(accounts) != 2 {
		t.Errorf("got %d accounts, want 2", len(accounts))
	}

	if _, err := svc.ListAccountsByUserID(ctx, 0); err == nil {
		t.Error("ListAccountsByUserID(0) expected error")
	}
}
