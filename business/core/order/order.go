// Package order provides the core business API for the local order
// summaries written after orders are created on chain.
package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidPaging is returned when a page window can't be computed.
var ErrInvalidPaging = errors.New("page and rows per page must be positive")

// MaxRowsPerPage is the largest page a caller may ask for.
const MaxRowsPerPage = 1000

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	Create(ctx context.Context, ord Order) error
	Query(ctx context.Context, pageNumber int, rowsPerPage int) ([]Order, error)
}

// Core manages the set of APIs for order summary access.
type Core struct {
	log    *zap.SugaredLogger
	storer Storer
}

// NewCore constructs a core for order summary api access.
func NewCore(log *zap.SugaredLogger, storer Storer) *Core {
	return &Core{
		log:    log,
		storer: storer,
	}
}

// Create appends a new order summary.
func (c *Core) Create(ctx context.Context, no NewOrder, now time.Time) (Order, error) {
	ord := Order{
		ID:               uuid.NewString(),
		ProcessorAddress: no.ProcessorAddress,
		Quantity:         no.Quantity,
		TxHash:           no.TxHash,
		DateCreated:      now,
	}

	if err := c.storer.Create(ctx, ord); err != nil {
		return Order{}, fmt.Errorf("create: %w", err)
	}

	return ord, nil
}

// Query retrieves a window of order summaries in creation order.
func (c *Core) Query(ctx context.Context, pageNumber int, rowsPerPage int) ([]Order, error) {
	if err := checkPaging(pageNumber, rowsPerPage); err != nil {
		return nil, err
	}

	ords, err := c.storer.Query(ctx, pageNumber, rowsPerPage)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return ords, nil
}

// checkPaging rejects windows whose starting offset can't be represented.
func checkPaging(pageNumber int, rowsPerPage int) error {
	switch {
	case pageNumber < 1 || rowsPerPage < 1:
		return ErrInvalidPaging
	case rowsPerPage > MaxRowsPerPage:
		return fmt.Errorf("%w: rows per page above %d", ErrInvalidPaging, MaxRowsPerPage)
	case pageNumber-1 > math.MaxInt/rowsPerPage:
		return fmt.Errorf("%w: page %d out of range", ErrInvalidPaging, pageNumber)
	}
	return nil
}
