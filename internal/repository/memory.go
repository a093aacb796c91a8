package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"investment_tracker/internal/model"
)

// MemoryStore keeps users and investments in process memory. It backs
// STORAGE_DRIVER=memory and the service tests.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]model.User
	investments []model.Investment
	nextID      int64
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]model.User), nextID: 1}
}

// Users returns the store's UserRepository view
func (s *MemoryStore) Users() UserRepository {
	return (*memoryUserRepository)(s)
}

// Investments returns the store's InvestmentRepository view
func (s *MemoryStore) Investments() InvestmentRepository {
	return (*memoryInvestmentRepository)(s)
}

type memoryUserRepository MemoryStore

func (r *memoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.ID]; exists {
		return fmt.Errorf("failed to create user: duplicate user_id %s", user.ID)
	}
	r.users[user.ID] = copyUser(*user)
	return nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	u = copyUser(u)
	return &u, nil
}

func (r *memoryUserRepository) FindAll(_ context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (r *memoryUserRepository) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return ErrNotFound
	}
	r.users[user.ID] = copyUser(*user)
	return nil
}

func (r *memoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	kept := r.investments[:0]
	for _, inv := range r.investments {
		if inv.UserID != id {
			kept = append(kept, inv)
		}
	}
	r.investments = kept
	delete(r.users, id)
	return nil
}

type memoryInvestmentRepository MemoryStore

func (r *memoryInvestmentRepository) Create(_ context.Context, inv *model.Investment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[inv.UserID]; !ok {
		return fmt.Errorf("failed to create investment: user %s does not exist", inv.UserID)
	}
	inv.ID = r.nextID
	r.nextID++
	r.investments = append(r.investments, *inv)
	return nil
}

func (r *memoryInvestmentRepository) FindByUser(_ context.Context, userID string) ([]model.Investment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []model.Investment{}
	for _, inv := range r.investments {
		if inv.UserID == userID {
			result = append(result, inv)
		}
	}
	return result, nil
}

func (r *memoryInvestmentRepository) FindAllWithOwner(_ context.Context, userID *string) ([]model.InvestmentWithOwner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []model.InvestmentWithOwner{}
	for _, inv := range r.investments {
		if userID != nil && *userID != "" && inv.UserID != *userID {
			continue
		}
		owner, ok := r.users[inv.UserID]
		if !ok {
			continue // Inner join semantics
		}
		result = append(result, model.InvestmentWithOwner{Investment: inv, Name: owner.Name})
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *memoryInvestmentRepository) DistinctUserIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	ids := []string{}
	for _, inv := range r.investments {
		if _, ok := seen[inv.UserID]; ok {
			continue
		}
		seen[inv.UserID] = struct{}{}
		ids = append(ids, inv.UserID)
	}
	sort.Strings(ids)
	return ids, nil
}

func copyUser(u model.User) model.User {
	if u.Email != nil {
		email := *u.Email
		u.Email = &email
	}
	return u
}
