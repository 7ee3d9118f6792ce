// Package user provides the core business API for the registered
// participants of the supply chain.
package user

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Set of error variables for CRUD operations.
var (
	ErrNotFound      = errors.New("user not found")
	ErrInvalidPaging = errors.New("page and rows per page must be positive")
)

// MaxRowsPerPage is the largest page a caller may ask for.
const MaxRowsPerPage = 1000

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	Create(ctx context.Context, usr User) error
	Update(ctx context.Context, userID string, uu UpdateUser, now time.Time) error
	Delete(ctx context.Context, userID string) error
	Query(ctx context.Context, pageNumber int, rowsPerPage int) ([]User, error)
	QueryByID(ctx context.Context, userID string) (User, error)
	QueryByAddress(ctx context.Context, address string) (User, error)
}

// Core manages the set of APIs for user access.
type Core struct {
	log    *zap.SugaredLogger
	storer Storer
}

// NewCore constructs a core for user api access.
func NewCore(log *zap.SugaredLogger, storer Storer) *Core {
	return &Core{
		log:    log,
		storer: storer,
	}
}

// Create inserts a new user into the database under a freshly generated
// identifier.
func (c *Core) Create(ctx context.Context, nu NewUser, now time.Time) (User, error) {
	if _, err := ParseRole(string(nu.Role)); err != nil {
		return User{}, err
	}

	usr := User{
		ID:                uuid.NewString(),
		BlockchainAddress: nu.BlockchainAddress,
		Role:              nu.Role,
		Name:              nu.Name,
		Mobile:            nu.Mobile,
		Email:             nu.Email,
		Address:           nu.Address,
		DateCreated:       now,
		DateUpdated:       now,
	}

	if err := c.storer.Create(ctx, usr); err != nil {
		return User{}, fmt.Errorf("create: %w", err)
	}

	return usr, nil
}

// Update merges the provided fields into the existing user.
func (c *Core) Update(ctx context.Context, userID string, uu UpdateUser, now time.Time) error {
	if uu.Role != nil {
		if _, err := ParseRole(string(*uu.Role)); err != nil {
			return err
		}
	}

	if err := c.storer.Update(ctx, userID, uu, now); err != nil {
		return fmt.Errorf("update[%s]: %w", userID, err)
	}

	return nil
}

// Delete removes the user identified by a given ID.
func (c *Core) Delete(ctx context.Context, userID string) error {
	if err := c.storer.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete[%s]: %w", userID, err)
	}

	return nil
}

// Query retrieves a window of users in creation order. Page numbers start
// at 1.
func (c *Core) Query(ctx context.Context, pageNumber int, rowsPerPage int) ([]User, error) {
	if err := checkPaging(pageNumber, rowsPerPage); err != nil {
		return nil, err
	}

	users, err := c.storer.Query(ctx, pageNumber, rowsPerPage)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return users, nil
}

// QueryByID finds the user identified by a given ID.
func (c *Core) QueryByID(ctx context.Context, userID string) (User, error) {
	usr, err := c.storer.QueryByID(ctx, userID)
	if err != nil {
		return User{}, fmt.Errorf("query[%s]: %w", userID, err)
	}

	return usr, nil
}

// QueryByAddress finds the user registered with the blockchain address.
// Addresses are matched without regard to hex case.
func (c *Core) QueryByAddress(ctx context.Context, address string) (User, error) {
	usr, err := c.storer.QueryByAddress(ctx, AddressKey(address))
	if err != nil {
		return User{}, fmt.Errorf("query address[%s]: %w", address, err)
	}

	return usr, nil
}

// AddressKey returns the normalized form of an address used for lookups.
func AddressKey(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
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
