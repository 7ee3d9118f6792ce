// Package usermem contains an in-memory user store for local runs and tests.
package usermem

import (
	"context"
	"sync"
	"time"

	"github.com/ardanlabs/milkchain/business/core/user"
)

// Store manages the set of APIs for user access held in memory. Users are
// kept in insertion order.
type Store struct {
	mu    sync.RWMutex
	users []user.User

	// Err, when set, is returned by every call to simulate an
	// unreachable store.
	Err error
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{}
}

// Create inserts a new user.
func (s *Store) Create(ctx context.Context, usr user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	s.users = append(s.users, usr)
	return nil
}

// Update sets only the provided fields on the user.
func (s *Store) Update(ctx context.Context, userID string, uu user.UpdateUser, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	i := s.index(userID)
	if i < 0 {
		return user.ErrNotFound
	}

	usr := &s.users[i]
	if uu.BlockchainAddress != nil {
		usr.BlockchainAddress = *uu.BlockchainAddress
	}
	if uu.Role != nil {
		usr.Role = *uu.Role
	}
	if uu.Name != nil {
		usr.Name = *uu.Name
	}
	if uu.Mobile != nil {
		usr.Mobile = *uu.Mobile
	}
	if uu.Email != nil {
		usr.Email = *uu.Email
	}
	if uu.Address != nil {
		usr.Address = *uu.Address
	}
	usr.DateUpdated = now

	return nil
}

// Delete removes the user.
func (s *Store) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	i := s.index(userID)
	if i < 0 {
		return user.ErrNotFound
	}

	s.users = append(s.users[:i], s.users[i+1:]...)
	return nil
}

// Query retrieves a window of users in insertion order.
func (s *Store) Query(ctx context.Context, pageNumber int, rowsPerPage int) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Err != nil {
		return nil, s.Err
	}

	start := (pageNumber - 1) * rowsPerPage
	if start >= len(s.users) {
		return []user.User{}, nil
	}

	end := min(start+rowsPerPage, len(s.users))

	usrs := make([]user.User, end-start)
	copy(usrs, s.users[start:end])
	return usrs, nil
}

// QueryByID gets the specified user.
func (s *Store) QueryByID(ctx context.Context, userID string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Err != nil {
		return user.User{}, s.Err
	}

	i := s.index(userID)
	if i < 0 {
		return user.User{}, user.ErrNotFound
	}

	return s.users[i], nil
}

// QueryByAddress gets the user registered with the normalized address.
func (s *Store) QueryByAddress(ctx context.Context, addressKey string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Err != nil {
		return user.User{}, s.Err
	}

	for _, usr := range s.users {
		if user.AddressKey(usr.BlockchainAddress) == addressKey {
			return usr, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (s *Store) index(userID string) int {
	for i, usr := range s.users {
		if usr.ID == userID {
			return i
		}
	}
	return -1
}
