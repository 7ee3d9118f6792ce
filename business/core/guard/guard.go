// Package guard checks that the caller of a contract operation is
// registered with the role the operation requires.
package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/milkchain/business/core/user"
	"go.uber.org/zap"
)

// ErrForbidden is matched by every rejection the guard produces.
var ErrForbidden = errors.New("forbidden")

// Decision describes why a caller was let through.
type Decision int

// Set of decisions the guard can reach for an allowed caller.
const (
	Authorized Decision = iota + 1
	Unregistered
)

// String implements the Stringer interface.
func (d Decision) String() string {
	switch d {
	case Authorized:
		return "authorized"
	case Unregistered:
		return "unregistered"
	}
	return "unknown"
}

// ForbiddenError is returned when the caller's role does not permit the
// operation.
type ForbiddenError struct {
	Required   user.Role
	Registered user.Role
}

// Error implements the error interface.
func (fe *ForbiddenError) Error() string {
	if fe.Registered == "" {
		return fmt.Sprintf("Only a registered %s is allowed to use this function", fe.Required)
	}
	return fmt.Sprintf("Only %s is allowed to use this function", fe.Required)
}

// Is allows errors.Is to match ErrForbidden.
func (fe *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

// UserFinder declares the lookup the guard needs from the user core.
type UserFinder interface {
	QueryByAddress(ctx context.Context, address string) (user.User, error)
}

// Config represents the settings for the guard.
type Config struct {
	// RejectUnregistered turns away callers with no user record. By
	// default they are let through.
	RejectUnregistered bool
}

// Guard performs the role checks.
type Guard struct {
	log                *zap.SugaredLogger
	users              UserFinder
	rejectUnregistered bool
}

// New constructs a guard backed by the user lookup.
func New(log *zap.SugaredLogger, users UserFinder, cfg Config) *Guard {
	return &Guard{
		log:                log,
		users:              users,
		rejectUnregistered: cfg.RejectUnregistered,
	}
}

// Check decides if the caller may submit an operation requiring the role.
// A store failure is returned as is so the caller can decide how to react;
// it is never treated as an unregistered caller.
func (g *Guard) Check(ctx context.Context, address string, required user.Role) (Decision, error) {
	usr, err := g.users.QueryByAddress(ctx, address)
	switch {
	case errors.Is(err, user.ErrNotFound):
		if g.rejectUnregistered {
			return 0, &ForbiddenError{Required: required}
		}
		g.log.Infow("guard", "status", "unregistered caller let through", "address", address, "required", required)
		return Unregistered, nil

	case err != nil:
		return 0, fmt.Errorf("guard lookup: %w", err)
	}

	if usr.Role != required {
		return 0, &ForbiddenError{Required: required, Registered: usr.Role}
	}

	return Authorized, nil
}
