package credentials

import "context"

// Repository is the durable store of credentials, scoped per account.
// Implementations return common.ErrorNotFound for a missing key and
// common.ErrorAlreadyExists on duplicate Create.
type Repository interface {
	Get(ctx context.Context, accountID string, key Key) (*Credential, error)
	Contains(ctx context.Context, accountID string, key Key) (bool, error)
	Create(ctx context.Context, credential *Credential) error
	Update(ctx context.Context, credential *Credential) error
	Remove(ctx context.Context, accountID string, key Key) error
	GetAllForAccount(ctx context.Context, accountID string) ([]*Credential, error)
	RemoveAllForAccount(ctx context.Context, accountID string) error
}
