package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/aanand-mishra/toys-api/internal/storage"
	"github.com/aanand-mishra/toys-api/internal/types"
)

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func ballDoc(id primitive.ObjectID) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Ball"},
		{Key: "descr", Value: "Not Available"},
		{Key: "age", Value: int32(3)},
		{Key: "price", Value: 9.99},
		{Key: "features", Value: bson.A{}},
	}
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("insert returns hex id", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		id, err := store.Insert(ctx, types.Toy{Name: "Ball", Age: 3, Price: 9.99})
		require.NoError(mt, err)

		_, err = primitive.ObjectIDFromHex(id)
		assert.NoError(mt, err)
	})

	mt.Run("get by id", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, ballDoc(oid)))

		toy, err := store.GetByID(ctx, oid.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, types.Toy{
			ID:       oid.Hex(),
			Name:     "Ball",
			Descr:    "Not Available",
			Age:      3,
			Price:    9.99,
			Features: []string{},
		}, toy)
	})

	mt.Run("get by id not found", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		_, err := store.GetByID(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, storage.ErrNotFound)
	})

	mt.Run("malformed id is rejected before any round trip", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)

		_, err := store.GetByID(ctx, "42")
		assert.ErrorIs(mt, err, storage.ErrInvalidID)
		assert.NotErrorIs(mt, err, storage.ErrNotFound)

		assert.ErrorIs(mt, store.DeleteByID(ctx, "nope"), storage.ErrInvalidID)

		_, err = store.ReplaceByID(ctx, "nope", types.Toy{})
		assert.ErrorIs(mt, err, storage.ErrInvalidID)
	})

	mt.Run("list translates ids", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)
		first, second := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, ballDoc(first), ballDoc(second)))

		toys, err := store.List(ctx, types.Filter{"name": "Ball"})
		require.NoError(mt, err)
		require.Len(mt, toys, 2)
		assert.Equal(mt, first.Hex(), toys[0].ID)
		assert.Equal(mt, second.Hex(), toys[1].ID)
	})

	mt.Run("list with unconvertible filter matches nothing", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)

		toys, err := store.List(ctx, types.Filter{"price": "cheap"})
		require.NoError(mt, err)
		assert.NotNil(mt, toys)
		assert.Empty(mt, toys)
	})

	mt.Run("delete", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		assert.NoError(mt, store.DeleteByID(ctx, primitive.NewObjectID().Hex()))
	})

	mt.Run("delete not found", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		assert.ErrorIs(mt, store.DeleteByID(ctx, primitive.NewObjectID().Hex()), storage.ErrNotFound)
	})

	mt.Run("replace", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: ballDoc(oid)}))

		toy, err := store.ReplaceByID(ctx, oid.Hex(), types.Toy{Name: "Ball", Age: 3, Price: 9.99})
		require.NoError(mt, err)
		assert.Equal(mt, oid.Hex(), toy.ID)
	})

	mt.Run("replace not found", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := store.ReplaceByID(ctx, primitive.NewObjectID().Hex(), types.Toy{Name: "Ball"})
		assert.ErrorIs(mt, err, storage.ErrNotFound)
	})

	mt.Run("server errors are wrapped", func(mt *mtest.T) {
		store := NewWithCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "unknown operator: $foo",
			Name:    "BadValue",
		}))

		_, err := store.List(ctx, nil)
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, storage.ErrNotFound)
		assert.Contains(mt, err.Error(), "unknown operator: $foo")
	})
}

func TestBuildQuery(t *testing.T) {
	oid := primitive.NewObjectID()

	query, ok := buildQuery(types.Filter{"id": oid.Hex(), "price": "12", "age": "3", "name": "Ball"})
	require.True(t, ok)
	assert.Equal(t, bson.M{"_id": oid, "price": 12.0, "age": 3, "name": "Ball"}, query)

	bad := []types.Filter{
		{"id": "7"},
		{"age": "three"},
		{"price": "x"},
		{"_id": "abc"},
		{"$where": "sleep(5000) || true"},
		{"$expr": "1"},
		{"name.first": "x"},
		{"name": "Ball", "features.0": "tail"},
	}
	for _, f := range bad {
		_, ok := buildQuery(f)
		assert.False(t, ok, "%v", f)
	}

	query, ok = buildQuery(nil)
	require.True(t, ok)
	assert.Empty(t, query)
}
