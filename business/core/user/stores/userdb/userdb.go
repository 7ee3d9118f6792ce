// Package userdb contains user related CRUD functionality against MongoDB.
package userdb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/ardanlabs/milkchain/business/core/user"
	"github.com/ardanlabs/milkchain/business/sys/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection is the name of the collection holding users.
const Collection = "users"

// Store manages the set of APIs for user database access.
type Store struct {
	log *zap.SugaredLogger
	col *mongo.Collection
}

// NewStore constructs the api for data access.
func NewStore(log *zap.SugaredLogger, db *database.DB) *Store {
	return &Store{
		log: log,
		col: db.Collection(Collection),
	}
}

// EnsureIndexes creates the indexes the queries rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userID", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "address_key", Value: 1}},
		},
	}

	if _, err := s.col.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("creating indexes: %w", database.Wrap(err))
	}

	return nil
}

// Create inserts a new user into the database.
func (s *Store) Create(ctx context.Context, usr user.User) error {
	if _, err := s.col.InsertOne(ctx, toDBUser(usr)); err != nil {
		return fmt.Errorf("inserting user: %w", database.Wrap(err))
	}

	return nil
}

// Update sets only the provided fields on the user document.
func (s *Store) Update(ctx context.Context, userID string, uu user.UpdateUser, now time.Time) error {
	filter := bson.M{"userID": userID}
	update := bson.M{"$set": toUpdate(uu, now)}

	res, err := s.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("updating user: %w", database.Wrap(err))
	}

	if res.MatchedCount == 0 {
		return user.ErrNotFound
	}

	return nil
}

// Delete removes a user from the database.
func (s *Store) Delete(ctx context.Context, userID string) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"userID": userID})
	if err != nil {
		return fmt.Errorf("deleting user: %w", database.Wrap(err))
	}

	if res.DeletedCount == 0 {
		return user.ErrNotFound
	}

	return nil
}

// Query retrieves a window of users ordered by insertion.
func (s *Store) Query(ctx context.Context, pageNumber int, rowsPerPage int) ([]user.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64((pageNumber - 1) * rowsPerPage)).
		SetLimit(int64(rowsPerPage))

	cursor, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("selecting users: %w", database.Wrap(err))
	}
	defer cursor.Close(ctx)

	var dbUsrs []dbUser
	if err := cursor.All(ctx, &dbUsrs); err != nil {
		return nil, fmt.Errorf("decoding users: %w", database.Wrap(err))
	}

	return toCoreUserSlice(dbUsrs), nil
}

// QueryByID gets the specified user from the database.
func (s *Store) QueryByID(ctx context.Context, userID string) (user.User, error) {
	return s.queryOne(ctx, bson.M{"userID": userID})
}

// QueryByAddress gets the user registered with the normalized address.
// Documents written before address_key existed are matched on the raw
// address without regard to case.
func (s *Store) QueryByAddress(ctx context.Context, addressKey string) (user.User, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"address_key": addressKey},
			bson.M{"user_blockchain_address": primitive.Regex{
				Pattern: "^" + regexp.QuoteMeta(addressKey) + "$",
				Options: "i",
			}},
		},
	}

	return s.queryOne(ctx, filter)
}

func (s *Store) queryOne(ctx context.Context, filter bson.M) (user.User, error) {
	var dbUsr dbUser
	if err := s.col.FindOne(ctx, filter).Decode(&dbUsr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("selecting user: %w", database.Wrap(err))
	}

	return toCoreUser(dbUsr), nil
}
