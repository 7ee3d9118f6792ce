// Package ordermem contains an in-memory order summary store for local runs
// and tests.
package ordermem

import (
	"context"
	"sync"

	"github.com/ardanlabs/milkchain/business/core/order"
)

// Store keeps order summaries in insertion order.
type Store struct {
	mu     sync.RWMutex
	orders []order.Order

	// Err, when set, is returned by every call to simulate an
	// unreachable store.
	Err error
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{}
}

// Create appends an order summary.
func (s *Store) Create(ctx context.Context, ord order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	s.orders = append(s.orders, ord)
	return nil
}

// Query retrieves a window of order summaries.
func (s *Store) Query(ctx context.Context, pageNumber int, rowsPerPage int) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Err != nil {
		return nil, s.Err
	}

	start := (pageNumber - 1) * rowsPerPage
	if start >= len(s.orders) {
		return []order.Order{}, nil
	}

	end := min(start+rowsPerPage, len(s.orders))

	ords := make([]order.Order, end-start)
	copy(ords, s.orders[start:end])
	return ords, nil
}

// Len returns the number of order summaries held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.orders)
}
