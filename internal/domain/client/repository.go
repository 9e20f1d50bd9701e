package client

import (
	"context"

	"github.com/poolstack/poolstack/internal/types"
)

// Repository defines the interface for client data access
type Repository interface {
	Create(ctx context.Context, client *Client) error
	Get(ctx context.Context, id string) (*Client, error)
	List(ctx context.Context, filter *types.ClientFilter) ([]*Client, error)
	Count(ctx context.Context, filter *types.ClientFilter) (int, error)
	Update(ctx context.Context, client *Client) error
	Delete(ctx context.Context, id string) error
}
