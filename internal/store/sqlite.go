package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sqlite "modernc.org/sqlite"

	"github.com/JonMunkholm/roster/internal/config"
	"github.com/JonMunkholm/roster/internal/core"
)

func init() {
	// casefold gives SQLite the same Unicode lower-casing lower() has on
	// PostgreSQL; COLLATE NOCASE only folds ASCII.
	_ = sqlite.RegisterDeterministicScalarFunction("casefold", 1, casefold)
}

func casefold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, errors.New("casefold expects 1 argument")
	}
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	case nil:
		return nil, nil
	default:
		return v, nil
	}
}

// SQLiteStore is the default record store: one WAL-mode database file.
// Writes go through db, whose transactions begin IMMEDIATE. Reads go
// through rdb, whose transactions are deferred, so a WAL reader keeps its
// snapshot while a writer holds the lock.
type SQLiteStore struct {
	db  *sql.DB
	rdb *sql.DB
	q   *dialect
}

// sqliteDSN builds a modernc.org/sqlite DSN for the write pool. Pragmas in
// the DSN apply to every pooled connection; _txlock=immediate takes the
// write lock at BEGIN so two writers never deadlock upgrading a read lock.
func sqliteDSN(path string, cfg config.DatabaseConfig) string {
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate",
		path, cfg.BusyTimeout.Milliseconds())
}

// sqliteReadDSN builds the DSN for the read pool: deferred transactions and
// query_only, so nothing on it can take the write lock.
func sqliteReadDSN(path string, cfg config.DatabaseConfig) string {
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=query_only(1)&_txlock=deferred",
		path, cfg.BusyTimeout.Milliseconds())
}

// OpenSQLite opens (creating if needed) the database at path and ensures the
// base table exists.
func OpenSQLite(ctx context.Context, path string, cfg config.DatabaseConfig) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite: empty database path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir: %w", err)
		}
	}

	q, err := loadDialect(config.EngineSQLite)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", sqliteDSN(path, cfg))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	s := &SQLiteStore{db: db, q: q}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// The read pool opens after init so the file already exists in WAL mode.
	rdb, err := sql.Open("sqlite", sqliteReadDSN(path, cfg))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: open reader: %w", err)
	}
	if cfg.MaxConns > 0 {
		rdb.SetMaxOpenConns(cfg.MaxConns)
	}
	rdb.SetMaxIdleConns(cfg.MinConns)
	rdb.SetConnMaxLifetime(cfg.MaxConnLifetime)
	rdb.SetConnMaxIdleTime(cfg.MaxConnIdleTime)
	if err := rdb.PingContext(ctx); err != nil {
		rdb.Close()
		db.Close()
		return nil, fmt.Errorf("sqlite: ping reader: %w", err)
	}
	s.rdb = rdb
	return s, nil
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	for _, stmt := range []string{s.q.CreateTable, s.q.CreateNameIndex} {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: create schema: %w", err)
		}
	}

	var mode string
	if err := s.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		return fmt.Errorf("sqlite: read journal_mode: %w", err)
	}
	if !strings.EqualFold(mode, "wal") {
		slog.Warn("sqlite journal_mode is not WAL", "journal_mode", mode)
	}
	return nil
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrDuplicateAfterUpdate) {
		return err
	}
	return &core.StorageError{Op: op, Err: err}
}

type sqlQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLiteStore) columns(ctx context.Context, q sqlQueryer) (columnSet, error) {
	rows, err := q.QueryContext(ctx, s.q.TableColumns)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return newColumnSet(names), rows.Err()
}

// Columns returns the table's column names.
func (s *SQLiteStore) Columns(ctx context.Context) ([]string, error) {
	set, err := s.columns(ctx, s.rdb)
	if err != nil {
		return nil, storageErr("columns", err)
	}
	out := make([]string, 0, len(set))
	for _, name := range set {
		out = append(out, name)
	}
	return out, nil
}

// InsertBatch implements core.Store.
func (s *SQLiteStore) InsertBatch(ctx context.Context, records []core.Record) ([]core.Record, error) {
	if len(records) == 0 {
		return nil, nil
	}

	var inserted []core.Record
	err := runTx(ctx, s.db, func(tx *sql.Tx) error {
		inserted = inserted[:0]

		cols, err := s.columns(ctx, tx)
		if err != nil {
			return err
		}
		for _, c := range missingColumns(cols, records) {
			if _, err := tx.ExecContext(ctx, s.q.addColumnSQL(c)); err != nil && !isDuplicateColumn(err) {
				return fmt.Errorf("add column %q: %w", c, err)
			}
			slog.Debug("added employee column", "column", c)
		}
		if cols, err = s.columns(ctx, tx); err != nil {
			return err
		}

		stmts := make(map[string]*sql.Stmt)
		defer func() {
			for _, st := range stmts {
				st.Close()
			}
		}()

		for _, r := range records {
			names, vals := rowValues(cols, r)
			query := s.q.insertSQL(names)
			stmt, ok := stmts[query]
			if !ok {
				if stmt, err = tx.PrepareContext(ctx, query); err != nil {
					return fmt.Errorf("prepare insert: %w", err)
				}
				stmts[query] = stmt
			}

			res, err := stmt.ExecContext(ctx, vals...)
			if err != nil {
				return fmt.Errorf("insert %s: %w", r.Hash(), err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n > 0 {
				inserted = append(inserted, storedRecord(r, names, vals))
			}
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("insert", err)
	}
	return inserted, nil
}

// storedRecord is r with its extras as written: stored column spelling,
// unsafe keys dropped.
func storedRecord(r core.Record, names []string, vals []any) core.Record {
	out := r
	out.Extra = nil
	for i := len(baseColumns); i < len(names); i++ {
		out.Extra = append(out.Extra, core.ExtraField{Key: names[i], Value: vals[i].(string)})
	}
	return out
}

// ReadPage implements core.Store. Count and rows come from one read
// transaction on the reader pool, which sees a single WAL snapshot.
func (s *SQLiteStore) ReadPage(ctx context.Context, page, pageSize int) (core.Page, error) {
	result := core.Page{Page: page, PageSize: pageSize}
	offset, ok := pageOffset(page, pageSize)

	err := runTx(ctx, s.rdb, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, s.q.Count).Scan(&result.Total); err != nil {
			return fmt.Errorf("count: %w", err)
		}
		result.Records = nil
		if !ok {
			return nil
		}
		rows, err := tx.QueryContext(ctx, s.q.SelectPage, pageSize, offset)
		if err != nil {
			return fmt.Errorf("select page: %w", err)
		}
		result.Records, err = scanSQLRows(rows)
		return err
	})
	if err != nil {
		return core.Page{}, storageErr("read page", err)
	}
	return result, nil
}

// ReadByName implements core.Store.
func (s *SQLiteStore) ReadByName(ctx context.Context, name string) (core.Record, error) {
	rows, err := s.rdb.QueryContext(ctx, s.q.SelectByName, name)
	if err != nil {
		return core.Record{}, storageErr("read by name", err)
	}
	records, err := scanSQLRows(rows)
	if err != nil {
		return core.Record{}, storageErr("read by name", err)
	}
	if len(records) == 0 {
		return core.Record{}, core.ErrNotFound
	}
	return records[0], nil
}

// UpdateByHash implements core.Store. Only the fixed columns change.
func (s *SQLiteStore) UpdateByHash(ctx context.Context, oldHash string, r core.Record) error {
	newHash := r.Hash()
	err := runTx(ctx, s.db, func(tx *sql.Tx) error {
		if newHash != oldHash {
			var exists bool
			if err := tx.QueryRowContext(ctx, s.q.HashExists, newHash).Scan(&exists); err != nil {
				return fmt.Errorf("check hash: %w", err)
			}
			if exists {
				return core.ErrDuplicateAfterUpdate
			}
		}
		res, err := tx.ExecContext(ctx, s.q.UpdateByHash,
			newHash, r.Name, r.Email, r.Phone, r.JoinedString(), oldHash)
		if err != nil {
			return fmt.Errorf("update: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return core.ErrNotFound
		}
		return nil
	})
	return storageErr("update", err)
}

// Ping implements core.Store.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storageErr("ping", err)
	}
	return storageErr("ping", s.rdb.PingContext(ctx))
}

// Close implements core.Store.
func (s *SQLiteStore) Close() error {
	return errors.Join(s.rdb.Close(), s.db.Close())
}

// scanSQLRows reads every row of a SELECT * and closes rows.
func scanSQLRows(rows *sql.Rows) ([]core.Record, error) {
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []core.Record
	for rows.Next() {
		raw := make([]sql.NullString, len(names))
		dest := make([]any, len(names))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		values := make([]*string, len(names))
		for i, v := range raw {
			if v.Valid {
				values[i] = &raw[i].String
			}
		}
		out = append(out, recordFromColumns(names, values))
	}
	return out, rows.Err()
}
