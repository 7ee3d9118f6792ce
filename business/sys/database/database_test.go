package database_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/milkchain/business/sys/database"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

func TestWrap(t *testing.T) {
	assert.NoError(t, database.Wrap(nil))

	sse := topology.ServerSelectionError{Wrapped: errors.New("server selection timeout")}
	assert.ErrorIs(t, database.Wrap(sse), database.ErrUnavailable)
	assert.ErrorIs(t, database.Wrap(mongo.ErrClientDisconnected), database.ErrUnavailable)

	err := database.Wrap(mongo.ErrNoDocuments)
	assert.NotErrorIs(t, err, database.ErrUnavailable)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}
