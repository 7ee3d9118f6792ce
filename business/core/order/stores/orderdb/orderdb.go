// Package orderdb contains order summary functionality against MongoDB.
package orderdb

import (
	"context"
	"fmt"
	"time"

	"github.com/ardanlabs/milkchain/business/core/order"
	"github.com/ardanlabs/milkchain/business/sys/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection is the name of the collection holding order summaries.
const Collection = "orders"

type dbOrder struct {
	ID               string    `bson:"order_summary_id"`
	ProcessorAddress string    `bson:"processor_address"`
	Quantity         int64     `bson:"quantity"`
	TxHash           string    `bson:"tx_hash,omitempty"`
	DateCreated      time.Time `bson:"date_created,omitempty"`
}

// Store manages the set of APIs for order summary database access.
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

// Create appends an order summary document.
func (s *Store) Create(ctx context.Context, ord order.Order) error {
	dbOrd := dbOrder{
		ID:               ord.ID,
		ProcessorAddress: ord.ProcessorAddress,
		Quantity:         ord.Quantity,
		TxHash:           ord.TxHash,
		DateCreated:      ord.DateCreated.UTC(),
	}

	if _, err := s.col.InsertOne(ctx, dbOrd); err != nil {
		return fmt.Errorf("inserting order: %w", database.Wrap(err))
	}

	return nil
}

// Query retrieves a window of order summaries ordered by insertion.
func (s *Store) Query(ctx context.Context, pageNumber int, rowsPerPage int) ([]order.Order, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64((pageNumber - 1) * rowsPerPage)).
		SetLimit(int64(rowsPerPage))

	cursor, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("selecting orders: %w", database.Wrap(err))
	}
	defer cursor.Close(ctx)

	var dbOrds []dbOrder
	if err := cursor.All(ctx, &dbOrds); err != nil {
		return nil, fmt.Errorf("decoding orders: %w", database.Wrap(err))
	}

	ords := make([]order.Order, len(dbOrds))
	for i, dbOrd := range dbOrds {
		ords[i] = order.Order{
			ID:               dbOrd.ID,
			ProcessorAddress: dbOrd.ProcessorAddress,
			Quantity:         dbOrd.Quantity,
			TxHash:           dbOrd.TxHash,
			DateCreated:      dbOrd.DateCreated,
		}
	}

	return ords, nil
}
