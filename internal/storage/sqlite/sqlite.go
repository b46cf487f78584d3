// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY SQLite?
// ───────────
// SQLite stores everything in a single file on disk. There is no
// network and no separate server process, which makes it the persistent
// variant of choice when no MongoDB is around. Towards clients it
// behaves like the mongo backend: ids are issued by the database and
// filters compare typed values.
//
// Queries are built with squirrel so the optional WHERE clause of List
// never needs string concatenation. Values are always bound as
// placeholders, never spliced into the SQL.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	sq "github.com/Masterminds/squirrel"

	"github.com/aanand-mishra/toys-api/internal/config"
	"github.com/aanand-mishra/toys-api/internal/storage"
	"github.com/aanand-mishra/toys-api/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

var columns = []string{"id", "name", "descr", "age", "price", "features"}

// SQLite is the concrete implementation of storage.Storage.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at cfg.Storage.Path, creates the toys
// table if it does not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// SQLite allows a single writer; one connection avoids "database is
	// locked" errors under concurrent requests.
	db.SetMaxOpenConns(1)

	// AUTOINCREMENT (rather than plain INTEGER PRIMARY KEY) guarantees a
	// deleted row's id is never handed out again.
	//
	// features holds a JSON array of strings.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS toys (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			name     TEXT    NOT NULL,
			descr    TEXT    NOT NULL,
			age      INTEGER NOT NULL,
			price    REAL    NOT NULL,
			features TEXT    NOT NULL DEFAULT '[]'
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// Close releases the underlying connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

func (s *SQLite) Insert(ctx context.Context, toy types.Toy) (string, error) {
	features, err := encodeFeatures(toy.Features)
	if err != nil {
		return "", fmt.Errorf("Insert: %w", err)
	}

	query, args, err := sq.Insert("toys").
		Columns("name", "descr", "age", "price", "features").
		Values(toy.Name, toy.Descr, toy.Age, toy.Price, features).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("Insert: build: %w", err)
	}

	result, err := s.Db.ExecContext(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("Insert: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("Insert: last insert id: %w", err)
	}

	return strconv.FormatInt(lastID, 10), nil
}

// List returns rows in id order. Filter values are converted to the
// column type first (id/age → integer, price → real); a value that does
// not convert cannot match any row. "features=X" matches rows whose
// array contains X. Unknown keys match nothing.
func (s *SQLite) List(ctx context.Context, filter types.Filter) ([]types.Toy, error) {
	builder := sq.Select(columns...).From("toys").OrderBy("id")

	for key, raw := range filter {
		cond, ok := condition(key, raw)
		if !ok {
			return []types.Toy{}, nil
		}
		builder = builder.Where(cond)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("List: build: %w", err)
	}

	rows, err := s.Db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: query: %w", err)
	}
	defer rows.Close()

	toys := make([]types.Toy, 0)
	for rows.Next() {
		toy, err := scanToy(rows)
		if err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		toys = append(toys, toy)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows iteration: %w", err)
	}

	return toys, nil
}

func (s *SQLite) GetByID(ctx context.Context, id string) (types.Toy, error) {
	rowID, err := parseID(id)
	if err != nil {
		return types.Toy{}, err
	}

	query, args, err := sq.Select(columns...).From("toys").Where(sq.Eq{"id": rowID}).Limit(1).ToSql()
	if err != nil {
		return types.Toy{}, fmt.Errorf("GetByID: build: %w", err)
	}

	toy, err := scanToy(s.Db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Toy{}, fmt.Errorf("no toy found with id %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return types.Toy{}, fmt.Errorf("GetByID: %w", err)
	}

	return toy, nil
}

func (s *SQLite) DeleteByID(ctx context.Context, id string) error {
	rowID, err := parseID(id)
	if err != nil {
		return err
	}

	query, args, err := sq.Delete("toys").Where(sq.Eq{"id": rowID}).ToSql()
	if err != nil {
		return fmt.Errorf("DeleteByID: build: %w", err)
	}

	result, err := s.Db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("DeleteByID: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteByID: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no toy found with id %s: %w", id, storage.ErrNotFound)
	}

	return nil
}

// ReplaceByID overwrites every column but id, then re-fetches the row so
// the caller gets exactly what is stored.
func (s *SQLite) ReplaceByID(ctx context.Context, id string, toy types.Toy) (types.Toy, error) {
	rowID, err := parseID(id)
	if err != nil {
		return types.Toy{}, err
	}

	features, err := encodeFeatures(toy.Features)
	if err != nil {
		return types.Toy{}, fmt.Errorf("ReplaceByID: %w", err)
	}

	query, args, err := sq.Update("toys").
		Set("name", toy.Name).
		Set("descr", toy.Descr).
		Set("age", toy.Age).
		Set("price", toy.Price).
		Set("features", features).
		Where(sq.Eq{"id": rowID}).
		ToSql()
	if err != nil {
		return types.Toy{}, fmt.Errorf("ReplaceByID: build: %w", err)
	}

	result, err := s.Db.ExecContext(ctx, query, args...)
	if err != nil {
		return types.Toy{}, fmt.Errorf("ReplaceByID: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return types.Toy{}, fmt.Errorf("ReplaceByID: rows affected: %w", err)
	}
	if n == 0 {
		return types.Toy{}, fmt.Errorf("no toy found with id %s: %w", id, storage.ErrNotFound)
	}

	return s.GetByID(ctx, id)
}

// condition translates one filter entry into a WHERE clause.
func condition(key, raw string) (sq.Sqlizer, bool) {
	switch key {
	case "id", "age":
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, false
		}
		return sq.Eq{key: n}, true
	case "price":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false
		}
		return sq.Eq{"price": f}, true
	case "name", "descr":
		return sq.Eq{key: raw}, true
	case "features":
		return sq.Expr("EXISTS (SELECT 1 FROM json_each(toys.features) WHERE json_each.value = ?)", raw), true
	default:
		return nil, false
	}
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a row id: %w", id, storage.ErrInvalidID)
	}
	return n, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanToy(row scanner) (types.Toy, error) {
	var (
		toy      types.Toy
		id       int64
		features string
	)

	if err := row.Scan(&id, &toy.Name, &toy.Descr, &toy.Age, &toy.Price, &features); err != nil {
		return types.Toy{}, err
	}

	toy.ID = strconv.FormatInt(id, 10)
	if err := json.Unmarshal([]byte(features), &toy.Features); err != nil {
		return types.Toy{}, fmt.Errorf("decode features of toy %d: %w", id, err)
	}
	if toy.Features == nil {
		toy.Features = []string{}
	}

	return toy, nil
}

func encodeFeatures(features []string) (string, error) {
	if features == nil {
		features = []string{}
	}
	b, err := json.Marshal(features)
	if err != nil {
		return "", fmt.Errorf("encode features: %w", err)
	}
	return string(b), nil
}
