package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/roster/internal/config"
	"github.com/JonMunkholm/roster/internal/core"
)

// PostgreSQL error codes tolerated while adding columns concurrently.
const (
	pgDuplicateColumn = "42701"
	pgUniqueViolation = "23505" // pg_attribute race on concurrent ADD COLUMN
)

// PostgresStore keeps records in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	q    *dialect
}

// OpenPostgres connects to url and ensures the base table exists.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns >= 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	// Columns are added at runtime, so a cached SELECT * description goes
	// stale. Describe every statement instead of caching prepared plans.
	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeDescribeExec

	q, err := loadDialect(config.EnginePostgres)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	s := &PostgresStore{pool: pool, q: q}
	if err := s.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) init(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	for _, stmt := range []string{s.q.CreateTable, s.q.CreateNameIndex} {
		if _, err := s.pool.Exec(ctx, stmt); err != nil && !isBenignDDL(err) {
			return fmt.Errorf("postgres: create schema: %w", err)
		}
	}
	return nil
}

// isBenignDDL reports whether a DDL failure means another session already
// did the same thing.
func isBenignDDL(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgDuplicateColumn || pgErr.Code == pgUniqueViolation
	}
	return false
}

type pgQueryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *PostgresStore) columns(ctx context.Context, q pgQueryer) (columnSet, error) {
	rows, err := q.Query(ctx, s.q.TableColumns)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	return newColumnSet(names), nil
}

// Columns returns the table's column names.
func (s *PostgresStore) Columns(ctx context.Context) ([]string, error) {
	set, err := s.columns(ctx, s.pool)
	if err != nil {
		return nil, storageErr("columns", err)
	}
	out := make([]string, 0, len(set))
	for _, name := range set {
		out = append(out, name)
	}
	return out, nil
}

// addColumn runs one ADD COLUMN inside a savepoint so a lost race does not
// abort the surrounding transaction.
func (s *PostgresStore) addColumn(ctx context.Context, tx pgx.Tx, column string) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return err
	}
	if _, err := sp.Exec(ctx, s.q.addColumnSQL(column)); err != nil {
		_ = sp.Rollback(ctx)
		if isBenignDDL(err) {
			return nil
		}
		return fmt.Errorf("add column %q: %w", column, err)
	}
	return sp.Commit(ctx)
}

// InsertBatch implements core.Store.
func (s *PostgresStore) InsertBatch(ctx context.Context, records []core.Record) ([]core.Record, error) {
	if len(records) == 0 {
		return nil, nil
	}

	var inserted []core.Record
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		cols, err := s.columns(ctx, tx)
		if err != nil {
			return err
		}
		for _, c := range missingColumns(cols, records) {
			if err := s.addColumn(ctx, tx, c); err != nil {
				return err
			}
			slog.Debug("added employee column", "column", c)
		}
		if cols, err = s.columns(ctx, tx); err != nil {
			return err
		}

		type pending struct {
			names []string
			vals  []any
		}
		rows := make([]pending, len(records))
		batch := &pgx.Batch{}
		for i, r := range records {
			names, vals := rowValues(cols, r)
			rows[i] = pending{names, vals}
			batch.Queue(s.q.insertSQL(names), vals...)
		}

		results := tx.SendBatch(ctx, batch)
		for i, r := range records {
			tag, err := results.Exec()
			if err != nil {
				results.Close()
				return fmt.Errorf("insert %s: %w", r.Hash(), err)
			}
			if tag.RowsAffected() > 0 {
				inserted = append(inserted, storedRecord(r, rows[i].names, rows[i].vals))
			}
		}
		return results.Close()
	})
	if err != nil {
		return nil, storageErr("insert", err)
	}
	return inserted, nil
}

// ReadPage implements core.Store. Count and rows share one repeatable-read
// snapshot.
func (s *PostgresStore) ReadPage(ctx context.Context, page, pageSize int) (core.Page, error) {
	result := core.Page{Page: page, PageSize: pageSize}
	offset, ok := pageOffset(page, pageSize)

	txOpts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := pgx.BeginTxFunc(ctx, s.pool, txOpts, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, s.q.Count).Scan(&result.Total); err != nil {
			return fmt.Errorf("count: %w", err)
		}
		if !ok {
			return nil
		}
		rows, err := tx.Query(ctx, s.q.SelectPage, pageSize, offset)
		if err != nil {
			return fmt.Errorf("select page: %w", err)
		}
		result.Records, err = scanPgRows(rows)
		return err
	})
	if err != nil {
		return core.Page{}, storageErr("read page", err)
	}
	return result, nil
}

// ReadByName implements core.Store.
func (s *PostgresStore) ReadByName(ctx context.Context, name string) (core.Record, error) {
	rows, err := s.pool.Query(ctx, s.q.SelectByName, name)
	if err != nil {
		return core.Record{}, storageErr("read by name", err)
	}
	records, err := scanPgRows(rows)
	if err != nil {
		return core.Record{}, storageErr("read by name", err)
	}
	if len(records) == 0 {
		return core.Record{}, core.ErrNotFound
	}
	return records[0], nil
}

// UpdateByHash implements core.Store. Only the fixed columns change.
func (s *PostgresStore) UpdateByHash(ctx context.Context, oldHash string, r core.Record) error {
	newHash := r.Hash()
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if newHash != oldHash {
			var exists bool
			if err := tx.QueryRow(ctx, s.q.HashExists, newHash).Scan(&exists); err != nil {
				return fmt.Errorf("check hash: %w", err)
			}
			if exists {
				return core.ErrDuplicateAfterUpdate
			}
		}
		tag, err := tx.Exec(ctx, s.q.UpdateByHash,
			newHash, r.Name, r.Email, r.Phone, r.JoinedString(), oldHash)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return core.ErrDuplicateAfterUpdate
			}
			return fmt.Errorf("update: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return core.ErrNotFound
		}
		return nil
	})
	return storageErr("update", err)
}

// Ping implements core.Store.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return storageErr("ping", s.pool.Ping(ctx))
}

// Close implements core.Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// scanPgRows reads every row of a SELECT * into records.
func scanPgRows(rows pgx.Rows) ([]core.Record, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}

	var out []core.Record
	for rows.Next() {
		raw := make([]pgtype.Text, len(names))
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
