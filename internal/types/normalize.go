package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Sentinel reasons carried by a ValidationError. Handlers match them with
// errors.Is to pick the HTTP status code (415 vs 400).
var (
	ErrUnsupportedMediaType = errors.New("Expected application/json media type")
	ErrMalformedData        = errors.New("Malformed data")
)

// Mode selects how Normalize treats the record identifier.
type Mode int

const (
	// ModeCreate is used by POST: the id is left empty and issued by the
	// store when the record is inserted.
	ModeCreate Mode = iota

	// ModeReplace is used by PUT: the id comes from the URL path, never
	// from the payload.
	ModeReplace
)

// ValidationError reports why a request payload could not be turned into
// a Toy. Reason is one of ErrUnsupportedMediaType or ErrMalformedData.
type ValidationError struct {
	Reason  error
	Missing []string // required fields absent from the payload
	Detail  string   // decoder / conversion message, if any
}

func (e *ValidationError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return fmt.Sprintf("%s: missing %s", e.Reason, strings.Join(e.Missing, ", "))
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
	default:
		return e.Reason.Error()
	}
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// Payload is the raw, untrusted shape of a request body.
//
// Every field is a pointer so that "absent" (nil) can be told apart from
// a zero value: {"age": 0} is a valid toy for newborns, {} is not.
// The validate:"required" tags are checked by go-playground/validator,
// which treats a nil pointer as missing.
//
// age and price are decoded as json.Number and converted afterwards, so
// the typed record is never built from a value we did not check.
type Payload struct {
	Name     *string      `json:"name"     validate:"required"`
	Age      *json.Number `json:"age"      validate:"required"`
	Price    *json.Number `json:"price"    validate:"required"`
	Descr    *string      `json:"descr"`
	Features *[]string    `json:"features"`
}

// validate is safe for concurrent use and caches struct metadata, so one
// instance is shared by every request.
var validate = validator.New()

// Normalize turns an HTTP request body into a canonical Toy.
//
// Steps:
//  1. the Content-Type must be the JSON media type (parameters such as
//     charset are allowed)
//  2. the body must decode into a Payload
//  3. name, age and price must be present
//  4. age/price are converted, descr and features get their defaults
//
// In ModeReplace the returned record carries id; in ModeCreate the id is
// empty and the store assigns one on insert. Replace is a full overwrite:
// a payload without "features" yields an empty list even if the stored
// record had some.
func Normalize(contentType string, body io.Reader, mode Mode, id string) (Toy, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/json" {
		return Toy{}, &ValidationError{Reason: ErrUnsupportedMediaType}
	}

	var payload Payload
	dec := json.NewDecoder(body)
	if err := dec.Decode(&payload); err != nil {
		detail := err.Error()
		if errors.Is(err, io.EOF) {
			detail = "request body is empty"
		}
		return Toy{}, &ValidationError{Reason: ErrMalformedData, Detail: detail}
	}

	// The body must hold exactly one JSON value.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Toy{}, &ValidationError{Reason: ErrMalformedData, Detail: "unexpected data after JSON body"}
	}

	return payload.toToy(mode, id)
}

func (p Payload) toToy(mode Mode, id string) (Toy, error) {
	if err := validate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Toy{}, err
		}
		missing := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			missing = append(missing, strings.ToLower(fe.Field()))
		}
		return Toy{}, &ValidationError{Reason: ErrMalformedData, Missing: missing}
	}

	age, err := toAge(*p.Age)
	if err != nil {
		return Toy{}, &ValidationError{Reason: ErrMalformedData, Detail: err.Error()}
	}

	price, err := p.Price.Float64()
	if err != nil {
		return Toy{}, &ValidationError{Reason: ErrMalformedData, Detail: "price must be a number"}
	}

	toy := Toy{
		Name:     *p.Name,
		Descr:    DefaultDescr,
		Age:      age,
		Price:    price,
		Features: []string{},
	}
	if mode == ModeReplace {
		toy.ID = id
	}
	if p.Descr != nil {
		toy.Descr = *p.Descr
	}
	if p.Features != nil && *p.Features != nil {
		toy.Features = *p.Features
	}

	return toy, nil
}

// toAge accepts any JSON number. Fractional ages are truncated toward
// zero, the same way a plain int conversion would treat them. Values that
// do not fit in an int are rejected rather than wrapped.
func toAge(n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		if i < math.MinInt || i > math.MaxInt {
			return 0, errAgeRange
		}
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, errors.New("age must be a number")
	}
	f = math.Trunc(f)
	// float64(math.MaxInt) rounds up to 2^63, hence >=.
	if f < math.MinInt || f >= math.MaxInt {
		return 0, errAgeRange
	}
	return int(f), nil
}

var errAgeRange = errors.New("age out of range")
