package accounts

import "context"

// Repository is the durable store of accounts, keyed by username.
// Implementations return common.ErrorNotFound for missing usernames and
// common.ErrorAlreadyExists on duplicate Create.
type Repository interface {
	Get(ctx context.Context, username string) (*Account, error)
	Contains(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, account *Account) (*Account, error)
	Update(ctx context.Context, account *Account) error
	Remove(ctx context.Context, username string) error
	GetAll(ctx context.Context) ([]*Account, error)
}
