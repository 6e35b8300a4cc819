package accounts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/panayot-marinov/password-vault/internal/common"
)

// InMemoryRepository keeps accounts in a map. It is the default backend for
// development mode and tests. Guarded by its own mutex so it stays safe even
// when used outside the server's single dispatch loop.
type InMemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]*Account
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{accounts: make(map[string]*Account)}
}

func (r *InMemoryRepository) Get(_ context.Context, username string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *account
	return &copied, nil
}

func (r *InMemoryRepository) Contains(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.accounts[username]
	return ok, nil
}

func (r *InMemoryRepository) Create(_ context.Context, account *Account) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.Username]; ok {
		return nil, common.ErrorAlreadyExists
	}

	copied := *account
	if copied.ID == "" {
		copied.ID = uuid.NewString()
	}
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	r.accounts[copied.Username] = &copied

	result := copied
	return &result, nil
}

func (r *InMemoryRepository) Update(_ context.Context, account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.Username]; !ok {
		return common.ErrorNotFound
	}
	copied := *account
	r.accounts[account.Username] = &copied
	return nil
}

func (r *InMemoryRepository) Remove(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[username]; !ok {
		return common.ErrorNotFound
	}
	delete(r.accounts, username)
	return nil
}

func (r *InMemoryRepository) GetAll(_ context.Context) ([]*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		copied := *account
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	return all, nil
}
