// Package mongo implements storage.Storage on top of a MongoDB collection.
//
// Documents keep their identifier in "_id" as an ObjectID. Clients only
// ever see its hex form in the "id" field; "_id" never leaves this package.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aanand-mishra/toys-api/internal/config"
	"github.com/aanand-mishra/toys-api/internal/storage"
	"github.com/aanand-mishra/toys-api/internal/types"
)

// document is the stored shape of a toy.
type document struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Name     string             `bson:"name"`
	Descr    string             `bson:"descr"`
	Age      int                `bson:"age"`
	Price    float64            `bson:"price"`
	Features []string           `bson:"features"`
}

func fromToy(t types.Toy) document {
	features := t.Features
	if features == nil {
		features = []string{}
	}
	return document{Name: t.Name, Descr: t.Descr, Age: t.Age, Price: t.Price, Features: features}
}

func (d document) toToy() types.Toy {
	features := d.Features
	if features == nil {
		features = []string{}
	}
	return types.Toy{
		ID:       d.ID.Hex(),
		Name:     d.Name,
		Descr:    d.Descr,
		Age:      d.Age,
		Price:    d.Price,
		Features: features,
	}
}

// Mongo is the MongoDB-backed toys collection.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects to cfg.Storage.MongoURI, checks the connection with a
// ping and returns a store bound to the configured collection. No schema
// or index is created.
func New(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Storage.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Storage.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo.New: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.New: ping: %w", err)
	}

	coll := client.Database(cfg.Storage.Database).Collection(cfg.Storage.Collection)
	return &Mongo{client: client, coll: coll}, nil
}

// NewWithCollection wraps an existing collection. The caller owns the
// client behind it.
func NewWithCollection(coll *mongo.Collection) *Mongo {
	return &Mongo{coll: coll}
}

// Close disconnects the client opened by New.
func (m *Mongo) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

func (m *Mongo) Insert(ctx context.Context, toy types.Toy) (string, error) {
	res, err := m.coll.InsertOne(ctx, fromToy(toy))
	if err != nil {
		return "", fmt.Errorf("Insert: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("Insert: unexpected id type %T", res.InsertedID)
	}

	return oid.Hex(), nil
}

func (m *Mongo) List(ctx context.Context, filter types.Filter) ([]types.Toy, error) {
	query, ok := buildQuery(filter)
	if !ok {
		return []types.Toy{}, nil
	}

	cur, err := m.coll.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: find: %w", err)
	}

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("List: decode: %w", err)
	}

	toys := make([]types.Toy, 0, len(docs))
	for _, d := range docs {
		toys = append(toys, d.toToy())
	}

	return toys, nil
}

func (m *Mongo) GetByID(ctx context.Context, id string) (types.Toy, error) {
	oid, err := parseID(id)
	if err != nil {
		return types.Toy{}, err
	}

	var d document
	err = m.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Toy{}, fmt.Errorf("no toy found with id %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return types.Toy{}, fmt.Errorf("GetByID: %w", err)
	}

	return d.toToy(), nil
}

func (m *Mongo) DeleteByID(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("DeleteByID: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("no toy found with id %s: %w", id, storage.ErrNotFound)
	}

	return nil
}

// ReplaceByID swaps the whole document in one round trip; fields absent
// from toy do not survive from the previous version.
func (m *Mongo) ReplaceByID(ctx context.Context, id string, toy types.Toy) (types.Toy, error) {
	oid, err := parseID(id)
	if err != nil {
		return types.Toy{}, err
	}

	opts := options.FindOneAndReplace().SetReturnDocument(options.After)

	var d document
	err = m.coll.FindOneAndReplace(ctx, bson.M{"_id": oid}, fromToy(toy), opts).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Toy{}, fmt.Errorf("no toy found with id %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return types.Toy{}, fmt.Errorf("ReplaceByID: %w", err)
	}

	return d.toToy(), nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%q is not an ObjectID: %w", id, storage.ErrInvalidID)
	}
	return oid, nil
}

// buildQuery converts query-string values to the types stored in the
// document: id → _id (ObjectID), price → float64, age → int. Other keys
// are compared as strings. ok is false when a value cannot be converted;
// such a filter cannot match any document. Keys that MongoDB would read
// as an operator ($where, $expr) or a dotted path are refused the same way.
func buildQuery(filter types.Filter) (bson.M, bool) {
	query := bson.M{}

	for key, raw := range filter {
		switch key {
		case "id":
			oid, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				return nil, false
			}
			query["_id"] = oid
		case "price":
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, false
			}
			query["price"] = f
		case "age":
			i, err := strconv.Atoi(raw)
			if err != nil {
				return nil, false
			}
			query["age"] = i
		case "_id":
			// internal key, never matched from the outside
			return nil, false
		default:
			if strings.HasPrefix(key, "$") || strings.Contains(key, ".") {
				return nil, false
			}
			query[key] = raw
		}
	}

	return query, true
}
