package item

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsync/internal/domain/institution"
	"finsync/internal/infrastructure/plaid"
	"finsync/internal/infrastructure/plaid/plaidtest"
)

// memItems is an in-memory Repository enforcing the (user, institution)
// uniqueness the database would.
type memItems struct {
	mu        sync.Mutex
	items     []*Item
	existsErr error
}

func (m *memItems) Create(ctx context.Context, n NewItem) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.UserID == n.UserID && it.InstitutionID == n.InstitutionID {
			return nil, ErrItemExists
		}
	}
	it := &Item{
		ID:            fmt.Sprintf("item-%d", len(m.items)+1),
		UserID:        n.UserID,
		InstitutionID: n.InstitutionID,
		ItemID:        n.ItemID,
		AccessToken:   n.AccessToken,
		CreatedAt:     time.Now(),
	}
	m.items = append(m.items, it)
	return it, nil
}

func (m *memItems) GetByID(ctx context.Context, id string) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.ID == id {
			return it, nil
		}
	}
	return nil, ErrItemNotFound
}

func (m *memItems) ListByUserID(ctx context.Context, userID int64) ([]*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Item
	for _, it := range m.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memItems) ExistsForInstitution(ctx context.Context, userID int64, institutionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	for _, it := range m.items {
		if it.UserID == userID && it.InstitutionID == institutionID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memItems) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range m.items {
		if it.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

func (m *memItems) ListUserIDs(ctx context.Context) ([]int64, error) {
	return nil, nil
}

type memInstitutions struct {
	byExternal map[string]*institution.Institution
	err        error
}

func (m *memInstitutions) FindOrCreate(ctx context.Context, institutionID, name string) (*institution.Institution, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.byExternal == nil {
		m.byExternal = map[string]*institution.Institution{}
	}
	if inst, ok := m.byExternal[institutionID]; ok {
		return inst, nil
	}
	inst := &institution.Institution{ID: "inst-" + institutionID, InstitutionID: institutionID, Name: name}
	m.byExternal[institutionID] = inst
	return inst, nil
}

func (m *memInstitutions) GetByID(ctx context.Context, id string) (*institution.Institution, error) {
	return nil, institution.ErrInstitutionNotFound
}

func (m *memInstitutions) GetByAccountID(ctx context.Context, accountID string) (*institution.Institution, error) {
	return nil, institution.ErrInstitutionNotFound
}

func newRegistry(client *plaidtest.MockClient) (*Registry, *memItems, *memInstitutions) {
	items := &memItems{}
	insts := &memInstitutions{}
	return NewRegistry(client, items, insts, zerolog.Nop()), items, insts
}

func TestRegistry_Link(t *testing.T) {
	client := &plaidtest.MockClient{}
	reg, items, insts := newRegistry(client)

	it, err := reg.Link(context.Background(), 1, "public-1")
	require.NoError(t, err)

	assert.Equal(t, "access-public-1", it.AccessToken)
	assert.Equal(t, "item-public-1", it.ItemID)
	assert.Equal(t, "ins_1", it.ExternalInstitutionID)
	assert.Equal(t, "Bank ins_1", it.InstitutionName)
	assert.Len(t, items.items, 1)
	assert.Len(t, insts.byExternal, 1)
	assert.Empty(t, client.Removed())
}

func TestRegistry_RelinkConflicts(t *testing.T) {
	client := &plaidtest.MockClient{}
	reg, items, insts := newRegistry(client)
	ctx := context.Background()

	_, err := reg.Link(ctx, 1, "public-1")
	require.NoError(t, err)

	_, err = reg.Link(ctx, 1, "public-2")
	assert.True(t, errors.Is(err, ErrItemExists))
	assert.Len(t, items.items, 1, "no second item may be created")
	assert.Len(t, insts.byExternal, 1)
	assert.Equal(t, []string{"access-public-2"}, client.Removed())

	_, err = reg.Link(ctx, 2, "public-3")
	require.NoError(t, err, "another user may link the same institution")
	assert.Len(t, items.items, 2)
}

func TestRegistry_LinkProviderErrors(t *testing.T) {
	providerErr := &plaid.ProviderError{StatusCode: 400, ErrorCode: "INVALID_PUBLIC_TOKEN"}

	tests := []struct {
		name        string
		client      *plaidtest.MockClient
		wantRevoked []string
	}{
		{
			name: "exchange",
			client: &plaidtest.MockClient{
				ExchangePublicTokenFunc: func(context.Context, string) (*plaid.Exchange, error) { return nil, providerErr },
			},
		},
		{
			name: "item lookup",
			client: &plaidtest.MockClient{
				GetItemFunc: func(context.Context, string) (*plaid.Item, error) { return nil, providerErr },
			},
			wantRevoked: []string{"access-public-1"},
		},
		{
			name: "institution lookup",
			client: &plaidtest.MockClient{
				GetInstitutionByIDFunc: func(context.Context, string) (*plaid.Institution, error) { return nil, providerErr },
			},
			wantRevoked: []string{"access-public-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, items, _ := newRegistry(tt.client)
			_, err := reg.Link(context.Background(), 1, "public-1")

			var pe *plaid.ProviderError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "INVALID_PUBLIC_TOKEN", pe.ErrorCode)
			assert.Empty(t, items.items)
			assert.Equal(t, tt.wantRevoked, tt.client.Removed())
		})
	}
}

func TestRegistry_LinkStoreErrorsRevokeToken(t *testing.T) {
	dbErr := errors.New("connection reset")

	tests := []struct {
		name      string
		instErr   error
		existsErr error
	}{
		{name: "institution record", instErr: dbErr},
		{name: "existing item check", existsErr: dbErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &plaidtest.MockClient{}
			reg, items, insts := newRegistry(client)
			insts.err = tt.instErr
			items.existsErr = tt.existsErr

			_, err := reg.Link(context.Background(), 1, "public-1")

			assert.ErrorIs(t, err, dbErr)
			assert.Empty(t, items.items)
			assert.Equal(t, []string{"access-public-1"}, client.Removed())
		})
	}
}

func TestRegistry_LinkWithoutInstitution(t *testing.T) {
	client := &plaidtest.MockClient{
		GetItemFunc: func(context.Context, string) (*plaid.Item, error) { return &plaid.Item{ItemID: "x"}, nil },
	}
	reg, items, _ := newRegistry(client)

	_, err := reg.Link(context.Background(), 1, "public-1")

	var pe *plaid.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Empty(t, items.items)
	assert.Equal(t, []string{"access-public-1"}, client.Removed())
}

func TestRegistry_CreateLinkToken(t *testing.T) {
	var got []plaid.LinkTokenRequest
	client := &plaidtest.MockClient{
		CreateLinkTokenFunc: func(ctx context.Context, req plaid.LinkTokenRequest) (*plaid.LinkToken, error) {
			got = append(got, req)
			return &plaid.LinkToken{LinkToken: "lt"}, nil
		},
	}
	reg, _, _ := newRegistry(client)
	ctx := context.Background()

	it, err := reg.Link(ctx, 5, "p")
	require.NoError(t, err)

	_, err = reg.CreateLinkToken(ctx, 5, "")
	require.NoError(t, err)
	_, err = reg.CreateLinkToken(ctx, 5, it.ID)
	require.NoError(t, err)
	_, err = reg.CreateLinkToken(ctx, 6, it.ID)
	assert.True(t, errors.Is(err, ErrForbidden))

	require.Len(t, got, 2)
	assert.Equal(t, plaid.LinkTokenRequest{ClientUserID: "5"}, got[0])
	assert.Equal(t, plaid.LinkTokenRequest{ClientUserID: "5", AccessToken: "access-p"}, got[1])
}

func TestRegistry_Unlink(t *testing.T) {
	client := &plaidtest.MockClient{
		RemoveItemFunc: func(context.Context, string) error {
			return &plaid.ProviderError{StatusCode: 400, ErrorCode: "ITEM_NOT_FOUND"}
		},
	}
	reg, items, _ := newRegistry(client)
	ctx := context.Background()

	it, err := reg.Link(ctx, 1, "p")
	require.NoError(t, err)

	assert.True(t, errors.Is(reg.Unlink(ctx, 2, it.ID), ErrForbidden))
	assert.True(t, errors.Is(reg.Unlink(ctx, 1, "missing"), ErrItemNotFound))

	require.NoError(t, reg.Unlink(ctx, 1, it.ID), "provider failure must not block local delete")
	assert.Empty(t, items.items)
	assert.Equal(t, []string{"access-p"}, client.Removed())
}
