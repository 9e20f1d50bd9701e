package testutil

import (
	"context"
	"fmt"

	"github.com/poolstack/poolstack/internal/domain/client"
	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/poolstack/poolstack/internal/types"
	"github.com/samber/lo"
)

// InMemoryClientStore implements client.Repository
type InMemoryClientStore struct {
	*InMemoryStore[*client.Client]
}

// NewInMemoryClientStore creates a new in-memory client store
func NewInMemoryClientStore() *InMemoryClientStore {
	return &InMemoryClientStore{
		InMemoryStore: NewInMemoryStore[*client.Client](),
	}
}

func copyClient(cl *client.Client) *client.Client {
	if cl == nil {
		return nil
	}
	c := *cl
	return &c
}

func (s *InMemoryClientStore) Create(ctx context.Context, cl *client.Client) error {
	if cl == nil {
		return fmt.Errorf("client cannot be nil")
	}
	return s.InMemoryStore.Create(ctx, cl.ID, copyClient(cl))
}

func (s *InMemoryClientStore) Get(ctx context.Context, id string) (*client.Client, error) {
	cl, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("client not found").
			WithHint("The client does not exist").
			Mark(ierr.ErrNotFound)
	}
	return copyClient(cl), nil
}

func (s *InMemoryClientStore) List(ctx context.Context, filter *types.ClientFilter) ([]*client.Client, error) {
	clients, err := s.InMemoryStore.List(ctx, filter, clientFilterFn, clientSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(clients, func(cl *client.Client, _ int) *client.Client {
		return copyClient(cl)
	}), nil
}

func (s *InMemoryClientStore) Count(ctx context.Context, filter *types.ClientFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, clientFilterFn)
}

func (s *InMemoryClientStore) Update(ctx context.Context, cl *client.Client) error {
	if cl == nil {
		return fmt.Errorf("client cannot be nil")
	}
	if err := s.InMemoryStore.Update(ctx, cl.ID, copyClient(cl)); err != nil {
		return ierr.NewError("client not found").
			WithHint("The client does not exist").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryClientStore) Delete(ctx context.Context, id string) error {
	cl, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	cl.Status = types.StatusDeleted
	return s.InMemoryStore.Update(ctx, id, cl)
}

func clientFilterFn(ctx context.Context, cl *client.Client, filter interface{}) bool {
	if cl == nil {
		return false
	}

	if orgID := types.GetOrganizationID(ctx); orgID != "" && cl.OrganizationID != orgID {
		return false
	}
	if cl.Status == types.StatusDeleted {
		return false
	}

	f, ok := filter.(*types.ClientFilter)
	if !ok || f == nil {
		return true
	}

	if len(f.ClientIDs) > 0 && !lo.Contains(f.ClientIDs, cl.ID) {
		return false
	}
	if f.Email != "" && cl.Email != f.Email {
		return false
	}
	return true
}

func clientSortFn(i, j *client.Client) bool {
	return i.CreatedAt.After(j.CreatedAt)
}
