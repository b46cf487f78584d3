// Package types defines the toy record, the list filter and the payload
// normalizer shared by the HTTP handlers and every storage backend.
package types

// DefaultDescr is stored when a payload carries no "descr" field.
const DefaultDescr = "Not Available"

// Toy represents a toy record in our system.
//
// Struct tags serve two purposes:
//
//  1. json:"..." controls how the field appears when encoded to JSON.
//     The id is always a string, whatever the backend uses natively.
//
//  2. bson:"..." gives the field names inside a MongoDB document. The id is NOT
//     stored under "id": the mongo backend keeps it in "_id" as an
//     ObjectID and translates it on the way in and out.
type Toy struct {
	ID       string   `json:"id"       bson:"-"`
	Name     string   `json:"name"     bson:"name"`
	Descr    string   `json:"descr"    bson:"descr"`
	Age      int      `json:"age"      bson:"age"`
	Price    float64  `json:"price"    bson:"price"`
	Features []string `json:"features" bson:"features"`
}

// Filter is the flat field → expected-value mapping taken from the query
// string of GET /toys. An empty Filter selects every record.
//
// Values are always the raw strings the client sent; each backend decides
// how to compare them (see the storage package).
type Filter map[string]string
