package user

import (
	"fmt"
	"time"
)

// Role represents the part an account plays in the supply chain.
type Role string

// Set of known roles.
const (
	RoleFarmer    Role = "Farmer"
	RoleProcessor Role = "Processor"
	RoleRetailer  Role = "Retailer"
	RoleCustomer  Role = "Customer"
)

// ParseRole validates the string is a known role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleFarmer, RoleProcessor, RoleRetailer, RoleCustomer:
		return r, nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

// String implements the Stringer interface.
func (r Role) String() string {
	return string(r)
}

// User represents a registered participant.
type User struct {
	ID                string
	BlockchainAddress string
	Role              Role
	Name              string
	Mobile            string
	Email             string
	Address           string
	DateCreated       time.Time
	DateUpdated       time.Time
}

// NewUser contains information needed to create a new user.
type NewUser struct {
	BlockchainAddress string
	Role              Role
	Name              string
	Mobile            string
	Email             string
	Address           string
}

// UpdateUser contains the fields that may be changed. Nil fields are left
// untouched.
type UpdateUser struct {
	BlockchainAddress *string
	Role              *Role
	Name              *string
	Mobile            *string
	Email             *string
	Address           *string
}
