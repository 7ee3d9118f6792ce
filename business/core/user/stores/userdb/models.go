package userdb

import (
	"time"

	"github.com/ardanlabs/milkchain/business/core/user"
)

// dbUser represent the structure we need for moving data
// between the app and the database. The field names match the documents
// written by earlier versions of the service.
type dbUser struct {
	ID                string    `bson:"userID"`
	BlockchainAddress string    `bson:"user_blockchain_address"`
	AddressKey        string    `bson:"address_key"`
	Role              string    `bson:"role"`
	Name              string    `bson:"name"`
	Mobile            string    `bson:"mobile"`
	Email             string    `bson:"email"`
	Address           string    `bson:"address"`
	DateCreated       time.Time `bson:"date_created,omitempty"`
	DateUpdated       time.Time `bson:"date_updated,omitempty"`
}

func toDBUser(usr user.User) dbUser {
	return dbUser{
		ID:                usr.ID,
		BlockchainAddress: usr.BlockchainAddress,
		AddressKey:        user.AddressKey(usr.BlockchainAddress),
		Role:              usr.Role.String(),
		Name:              usr.Name,
		Mobile:            usr.Mobile,
		Email:             usr.Email,
		Address:           usr.Address,
		DateCreated:       usr.DateCreated.UTC(),
		DateUpdated:       usr.DateUpdated.UTC(),
	}
}

func toCoreUser(dbUsr dbUser) user.User {
	return user.User{
		ID:                dbUsr.ID,
		BlockchainAddress: dbUsr.BlockchainAddress,
		Role:              user.Role(dbUsr.Role),
		Name:              dbUsr.Name,
		Mobile:            dbUsr.Mobile,
		Email:             dbUsr.Email,
		Address:           dbUsr.Address,
		DateCreated:       dbUsr.DateCreated,
		DateUpdated:       dbUsr.DateUpdated,
	}
}

func toCoreUserSlice(dbUsrs []dbUser) []user.User {
	usrs := make([]user.User, len(dbUsrs))
	for i, dbUsr := range dbUsrs {
		usrs[i] = toCoreUser(dbUsr)
	}
	return usrs
}

// toUpdate builds the $set document for the fields present.
func toUpdate(uu user.UpdateUser, now time.Time) map[string]any {
	set := map[string]any{
		"date_updated": now.UTC(),
	}

	if uu.BlockchainAddress != nil {
		set["user_blockchain_address"] = *uu.BlockchainAddress
		set["address_key"] = user.AddressKey(*uu.BlockchainAddress)
	}
	if uu.Role != nil {
		set["role"] = uu.Role.String()
	}
	if uu.Name != nil {
		set["name"] = *uu.Name
	}
	if uu.Mobile != nil {
		set["mobile"] = *uu.Mobile
	}
	if uu.Email != nil {
		set["email"] = *uu.Email
	}
	if uu.Address != nil {
		set["address"] = *uu.Address
	}

	return set
}
