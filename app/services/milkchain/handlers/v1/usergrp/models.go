package usergrp

import (
	"time"

	"github.com/ardanlabs/milkchain/business/core/user"
)

// AppUser represents a user as seen by clients.
type AppUser struct {
	ID                string `json:"userID"`
	BlockchainAddress string `json:"user_blockchain_address"`
	Role              string `json:"role"`
	Name              string `json:"name"`
	Mobile            string `json:"mobile"`
	Email             string `json:"email"`
	Address           string `json:"address"`
	DateCreated       string `json:"dateCreated"`
	DateUpdated       string `json:"dateUpdated"`
}

func toAppUser(usr user.User) AppUser {
	return AppUser{
		ID:                usr.ID,
		BlockchainAddress: usr.BlockchainAddress,
		Role:              usr.Role.String(),
		Name:              usr.Name,
		Mobile:            usr.Mobile,
		Email:             usr.Email,
		Address:           usr.Address,
		DateCreated:       usr.DateCreated.Format(time.RFC3339),
		DateUpdated:       usr.DateUpdated.Format(time.RFC3339),
	}
}

func toAppUsers(usrs []user.User) []AppUser {
	items := make([]AppUser, len(usrs))
	for i, usr := range usrs {
		items[i] = toAppUser(usr)
	}
	return items
}

// =============================================================================

// AppNewUser contains information needed to register a user.
type AppNewUser struct {
	BlockchainAddress string `json:"user_blockchain_address" validate:"required,eth_addr"`
	Role              string `json:"role" validate:"required,oneof=Farmer Processor Retailer Customer"`
	Name              string `json:"name" validate:"required"`
	Mobile            string `json:"mobile"`
	Email             string `json:"email" validate:"omitempty,email"`
	Address           string `json:"address"`
}

func toCoreNewUser(app AppNewUser) user.NewUser {
	return user.NewUser{
		BlockchainAddress: app.BlockchainAddress,
		Role:              user.Role(app.Role),
		Name:              app.Name,
		Mobile:            app.Mobile,
		Email:             app.Email,
		Address:           app.Address,
	}
}

// AppUpdateUser contains information needed to update a user. Only the
// fields present in the document are changed.
type AppUpdateUser struct {
	BlockchainAddress *string `json:"user_blockchain_address" validate:"omitempty,eth_addr"`
	Role              *string `json:"role" validate:"omitempty,oneof=Farmer Processor Retailer Customer"`
	Name              *string `json:"name"`
	Mobile            *string `json:"mobile"`
	Email             *string `json:"email" validate:"omitempty,email"`
	Address           *string `json:"address"`
}

func toCoreUpdateUser(app AppUpdateUser) user.UpdateUser {
	uu := user.UpdateUser{
		BlockchainAddress: app.BlockchainAddress,
		Name:              app.Name,
		Mobile:            app.Mobile,
		Email:             app.Email,
		Address:           app.Address,
	}

	if app.Role != nil {
		role := user.Role(*app.Role)
		uu.Role = &role
	}

	return uu
}
