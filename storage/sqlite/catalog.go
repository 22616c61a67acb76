// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sqlite implements the catalog repositories on an embedded
// SQLite database through the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/poiesic/funcrec/core"
	"github.com/poiesic/funcrec/storage"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS functions (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	description TEXT,
	code TEXT NOT NULL,
	language TEXT NOT NULL DEFAULT 'python',
	action TEXT,
	data_type TEXT,
	order_type TEXT,
	usage TEXT,
	complexity TEXT,
	popularity INTEGER NOT NULL DEFAULT 5,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS keywords (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	function_id TEXT NOT NULL,
	keyword TEXT NOT NULL,
	FOREIGN KEY (function_id) REFERENCES functions(id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS checkpoints (
	processor TEXT PRIMARY KEY,
	data BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_language ON functions(language);
CREATE INDEX IF NOT EXISTS idx_action ON functions(action);
CREATE INDEX IF NOT EXISTS idx_data_type ON functions(data_type);
CREATE INDEX IF NOT EXISTS idx_keyword ON keywords(keyword);
CREATE INDEX IF NOT EXISTS idx_function_keyword ON keywords(function_id);
`

const selectColumns = `f.id, f.name, f.description, f.code, f.language, f.action, f.data_type,
	f.order_type, f.usage, f.complexity, f.popularity`

// DB is a SQLite-backed catalog and checkpoint store.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
}

var (
	_ storage.CatalogRepository    = (*DB)(nil)
	_ storage.CheckpointRepository = (*DB)(nil)
)

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*DB, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writers and keeps :memory: databases whole.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &DB{
		conn:   conn,
		logger: slog.Default().With("component", "sqlite"),
	}, nil
}

// NewRepository opens a SQLite-backed catalog repository at path.
func NewRepository(path string) (storage.CatalogRepository, error) {
	return Open(path)
}

// NewMemoryRepository creates an in-memory catalog repository for testing.
func NewMemoryRepository() (storage.CatalogRepository, error) {
	return Open(MemoryPath)
}

// Close closes the database.
func (db *DB) Close() error {
	return db.conn.Close()
}

type txKey struct{}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTransaction runs fn in a transaction. Repository calls made with the
// context passed to fn join that transaction.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr(err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	return nil
}

func (db *DB) q(ctx context.Context) execer {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db.conn
}

// AddRecords inserts records and their keywords.
func (db *DB) AddRecords(ctx context.Context, records ...*core.FunctionRecord) error {
	if len(records) == 0 {
		return nil
	}
	return db.WithTransaction(ctx, func(ctx context.Context) error {
		q := db.q(ctx)
		for _, r := range records {
			if r == nil {
				return fmt.Errorf("%w: record is nil", core.ErrInvalidRecord)
			}
			_, err := q.ExecContext(ctx, `
				INSERT INTO functions
				(id, name, description, code, language, action, data_type, order_type, usage, complexity, popularity)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				r.ID, r.Name, r.Description, r.Code, string(r.Language), r.Action, r.DataType,
				string(r.Order), r.Usage, r.Complexity, r.Popularity)
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: %s", storage.ErrDuplicateKey, r.ID)
				}
				return wrapErr(err)
			}
			if err := insertKeywords(ctx, q, r); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateRecords replaces records and their keywords. The insertion
// sequence is untouched.
func (db *DB) UpdateRecords(ctx context.Context, records ...*core.FunctionRecord) error {
	if len(records) == 0 {
		return nil
	}
	return db.WithTransaction(ctx, func(ctx context.Context) error {
		q := db.q(ctx)
		for _, r := range records {
			if r == nil {
				return fmt.Errorf("%w: record is nil", core.ErrInvalidRecord)
			}
			res, err := q.ExecContext(ctx, `
				UPDATE functions SET
					name = ?, description = ?, code = ?, language = ?, action = ?, data_type = ?,
					order_type = ?, usage = ?, complexity = ?, popularity = ?, updated_at = ?
				WHERE id = ?`,
				r.Name, r.Description, r.Code, string(r.Language), r.Action, r.DataType,
				string(r.Order), r.Usage, r.Complexity, r.Popularity, time.Now().UTC(), r.ID)
			if err != nil {
				return wrapErr(err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: %s", storage.ErrNotFound, r.ID)
			}
			if _, err := q.ExecContext(ctx, `DELETE FROM keywords WHERE function_id = ?`, r.ID); err != nil {
				return wrapErr(err)
			}
			if err := insertKeywords(ctx, q, r); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteRecords removes records; keywords cascade.
func (db *DB) DeleteRecords(ctx context.Context, ids ...string) error {
	return db.WithTransaction(ctx, func(ctx context.Context) error {
		q := db.q(ctx)
		for _, id := range ids {
			res, err := q.ExecContext(ctx, `DELETE FROM functions WHERE id = ?`, id)
			if err != nil {
				return wrapErr(err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
			}
		}
		return nil
	})
}

// GetRecord retrieves a single record by ID.
func (db *DB) GetRecord(ctx context.Context, id string) (*core.FunctionRecord, error) {
	records, err := db.query(ctx, `SELECT `+selectColumns+` FROM functions f WHERE f.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return records[0], nil
}

// ListRecords returns records in insertion order.
func (db *DB) ListRecords(ctx context.Context, language core.Language) ([]*core.FunctionRecord, error) {
	if language == "" {
		return db.query(ctx, `SELECT `+selectColumns+` FROM functions f ORDER BY f.seq`)
	}
	return db.query(ctx, `SELECT `+selectColumns+` FROM functions f WHERE f.language = ? ORDER BY f.seq`,
		string(language))
}

// SearchRecords runs a LIKE search over keywords, names and descriptions.
func (db *DB) SearchRecords(ctx context.Context, term string, language core.Language, limit int) ([]*core.FunctionRecord, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(term))) + "%"
	query := `
		SELECT ` + selectColumns + ` FROM functions f
		WHERE (
			LOWER(f.name) LIKE ? ESCAPE '\' OR
			LOWER(f.description) LIKE ? ESCAPE '\' OR
			EXISTS (SELECT 1 FROM keywords k WHERE k.function_id = f.id AND LOWER(k.keyword) LIKE ? ESCAPE '\')
		)`
	args := []any{pattern, pattern, pattern}
	if language != "" {
		query += ` AND f.language = ?`
		args = append(args, string(language))
	}
	query += ` ORDER BY f.popularity DESC, f.seq LIMIT ?`
	args = append(args, storage.SearchLimit(limit))

	return db.query(ctx, query, args...)
}

// Stats counts records per language.
func (db *DB) Stats(ctx context.Context) (core.CatalogStats, error) {
	stats := storage.NewStats()
	rows, err := db.q(ctx).QueryContext(ctx, `SELECT language, COUNT(*) FROM functions GROUP BY language`)
	if err != nil {
		return stats, wrapErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		var lang string
		var n int
		if err := rows.Scan(&lang, &n); err != nil {
			return stats, err
		}
		stats.ByLanguage[core.Language(lang)] = n
		stats.Total += n
	}
	return stats, rows.Err()
}

// SaveCheckpoint stores a processor checkpoint.
func (db *DB) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	checkpoint.UpdatedAt = time.Now().UTC()
	data, err := storage.MarshalCheckpoint(checkpoint)
	if err != nil {
		return err
	}
	_, err = db.q(ctx).ExecContext(ctx, `
		INSERT INTO checkpoints (processor, data) VALUES (?, ?)
		ON CONFLICT(processor) DO UPDATE SET data = excluded.data`,
		checkpoint.Processor, data)
	return wrapErr(err)
}

// LoadCheckpoint returns nil, nil when the processor has no checkpoint.
func (db *DB) LoadCheckpoint(ctx context.Context, processor string) (*core.Checkpoint, error) {
	var data []byte
	err := db.q(ctx).QueryRowContext(ctx, `SELECT data FROM checkpoints WHERE processor = ?`, processor).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	return storage.UnmarshalCheckpoint(data)
}

// DeleteCheckpoint removes a processor checkpoint.
func (db *DB) DeleteCheckpoint(ctx context.Context, processor string) error {
	_, err := db.q(ctx).ExecContext(ctx, `DELETE FROM checkpoints WHERE processor = ?`, processor)
	return wrapErr(err)
}

// query runs a function select and attaches keywords.
func (db *DB) query(ctx context.Context, query string, args ...any) ([]*core.FunctionRecord, error) {
	q := db.q(ctx)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(err)
	}

	records := []*core.FunctionRecord{}
	byID := make(map[string]*core.FunctionRecord)
	for rows.Next() {
		var r core.FunctionRecord
		var desc, action, dataType, order, usage, complexity sql.NullString
		var lang string
		if err := rows.Scan(&r.ID, &r.Name, &desc, &r.Code, &lang, &action, &dataType,
			&order, &usage, &complexity, &r.Popularity); err != nil {
			rows.Close()
			return nil, err
		}
		r.Description = desc.String
		r.Language = core.Language(lang)
		r.Action = action.String
		r.DataType = dataType.String
		r.Order = core.Order(order.String)
		r.Usage = usage.String
		r.Complexity = complexity.String
		records = append(records, &r)
		byID[r.ID] = &r
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(records) == 0 {
		return records, nil
	}
	if err := db.attachKeywords(ctx, q, byID); err != nil {
		return nil, err
	}
	return records, nil
}

// attachKeywords loads keywords for the given records in stored order.
func (db *DB) attachKeywords(ctx context.Context, q execer, byID map[string]*core.FunctionRecord) error {
	ids := make([]any, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := q.QueryContext(ctx,
		`SELECT function_id, keyword FROM keywords WHERE function_id IN (`+placeholders+`) ORDER BY id`, ids...)
	if err != nil {
		return wrapErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, keyword string
		if err := rows.Scan(&id, &keyword); err != nil {
			return err
		}
		if r := byID[id]; r != nil {
			r.Keywords = append(r.Keywords, keyword)
		}
	}
	return rows.Err()
}

func insertKeywords(ctx context.Context, q execer, r *core.FunctionRecord) error {
	for _, k := range r.Keywords {
		if _, err := q.ExecContext(ctx, `INSERT INTO keywords (function_id, keyword) VALUES (?, ?)`, r.ID, k); err != nil {
			return wrapErr(err)
		}
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// wrapErr maps a closed database onto storage.ErrStorageClosed.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "database is closed") {
		return fmt.Errorf("%w: %w", storage.ErrStorageClosed, err)
	}
	return err
}
