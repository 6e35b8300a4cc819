package credentials

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/panayot-marinov/password-vault/internal/common"
)

// InMemoryRepository keeps credentials in nested maps keyed by account ID,
// then by (application, username). Default backend for development and tests.
type InMemoryRepository struct {
	mu     sync.RWMutex
	byAcct map[string]map[Key]*Credential
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byAcct: make(map[string]map[Key]*Credential)}
}

func (r *InMemoryRepository) key(c *Credential) Key {
	return Key{ApplicationName: c.ApplicationName, CredentialsUsername: c.CredentialsUsername}
}

func (r *InMemoryRepository) Get(_ context.Context, accountID string, key Key) (*Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	credential, ok := r.byAcct[accountID][key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *credential
	return &copied, nil
}

func (r *InMemoryRepository) Contains(_ context.Context, accountID string, key Key) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byAcct[accountID][key]
	return ok, nil
}

func (r *InMemoryRepository) Create(_ context.Context, credential *Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.byAcct[credential.AccountID]
	if !ok {
		set = make(map[Key]*Credential)
		r.byAcct[credential.AccountID] = set
	}

	key := r.key(credential)
	if _, ok := set[key]; ok {
		return common.ErrorAlreadyExists
	}

	copied := *credential
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	set[key] = &copied
	return nil
}

func (r *InMemoryRepository) Update(_ context.Context, credential *Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.key(credential)
	if _, ok := r.byAcct[credential.AccountID][key]; !ok {
		return common.ErrorNotFound
	}
	copied := *credential
	r.byAcct[credential.AccountID][key] = &copied
	return nil
}

func (r *InMemoryRepository) Remove(_ context.Context, accountID string, key Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byAcct[accountID][key]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byAcct[accountID], key)
	return nil
}

func (r *InMemoryRepository) GetAllForAccount(_ context.Context, accountID string) ([]*Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byAcct[accountID]
	all := make([]*Credential, 0, len(set))
	for _, credential := range set {
		copied := *credential
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].ApplicationName != all[j].ApplicationName {
			return all[i].ApplicationName < all[j].ApplicationName
		}
		return all[i].CredentialsUsername < all[j].CredentialsUsername
	})
	return all, nil
}

func (r *InMemoryRepository) RemoveAllForAccount(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byAcct, accountID)
	return nil
}
