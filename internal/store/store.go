// Package store implements core.Store on SQLite (default) and PostgreSQL.
//
// Both engines share one table layout: the fixed columns hash (primary key),
// name, email, phone and joined, plus one nullable TEXT column per extra field
// key ever accepted. Columns are added inside the insert transaction, so a
// reader never sees a column without the rows that introduced it.
//
// SQL text lives in queries/<engine>.yaml and is embedded at build time.
package store

import (
	"context"
	"fmt"
	"math"

	"github.com/JonMunkholm/roster/internal/config"
	"github.com/JonMunkholm/roster/internal/core"
)

var (
	_ core.Store = (*SQLiteStore)(nil)
	_ core.Store = (*PostgresStore)(nil)
)

// Open picks the engine from cfg.URL.
func Open(ctx context.Context, cfg config.DatabaseConfig) (core.Store, error) {
	switch cfg.Engine() {
	case config.EnginePostgres:
		return OpenPostgres(ctx, cfg)
	case config.EngineSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath(), cfg)
	}
	return nil, fmt.Errorf("unsupported database url %q", cfg.URL)
}

// pageOffset returns the row offset of a 1-based page, or false when the page
// lies beyond any addressable row.
func pageOffset(page, pageSize int) (int64, bool) {
	if page < 1 || pageSize < 1 {
		return 0, false
	}
	if int64(page-1) > math.MaxInt64/int64(pageSize) {
		return 0, false
	}
	return int64(page-1) * int64(pageSize), true
}
