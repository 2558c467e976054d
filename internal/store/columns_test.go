package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/roster/internal/core"
)

func TestIsSafeColumnName(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"dept", true},
		{"_private", true},
		{"Team2", true},
		{strings.Repeat("a", MaxColumnNameLength), true},
		{strings.Repeat("a", MaxColumnNameLength+1), false},
		{"", false},
		{"1abc", false},
		{"a;b", false},
		{"x'y", false},
		{"drop)", false},
		{"has space", false},
		{"new\nline", false},
		{"부서", false},
		{"name", false},
		{"HASH", false},
		{"phone", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSafeColumnName(tt.key), "IsSafeColumnName(%q)", tt.key)
	}
}

func TestMissingColumns(t *testing.T) {
	known := newColumnSet(baseColumns)
	known.add("Dept")

	records := []core.Record{
		{Extra: core.Extra{{Key: "dept", Value: "x"}, {Key: "team", Value: "y"}, {Key: "bad;key", Value: "z"}}},
		{Extra: core.Extra{{Key: "TEAM", Value: "y"}, {Key: "level", Value: "1"}}},
	}
	assert.Equal(t, []string{"team", "level"}, missingColumns(known, records))
}

func TestRowValues(t *testing.T) {
	known := newColumnSet(append([]string{"Dept"}, baseColumns...))
	r := core.Record{
		Name: "A", Email: "a@x.com", Phone: "010",
		Extra: core.Extra{{Key: "dept", Value: "eng"}, {Key: "unknown", Value: "?"}, {Key: "a;b", Value: "!"}},
	}

	names, vals := rowValues(known, r)
	assert.Equal(t, []string{"hash", "name", "email", "phone", "joined", "Dept"}, names)
	require.Len(t, vals, 6)
	assert.Equal(t, r.Hash(), vals[0])
	assert.Equal(t, "0001-01-01", vals[4])
	assert.Equal(t, "eng", vals[5])
}

func TestRecordFromColumns(t *testing.T) {
	s := func(v string) *string { return &v }
	r := recordFromColumns(
		[]string{"hash", "name", "email", "phone", "joined", "dept", "level"},
		[]*string{s("h"), s("A"), s("a@x.com"), s("010"), s("2020-01-01"), nil, s("3")},
	)
	assert.Equal(t, "A", r.Name)
	assert.Equal(t, "2020-01-01", r.JoinedString())
	assert.Equal(t, core.Extra{{Key: "level", Value: "3"}}, r.Extra)
}

func TestDialects(t *testing.T) {
	sqlite, err := loadDialect("sqlite")
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT OR IGNORE INTO employees ("hash", "name") VALUES (?, ?)`,
		strings.TrimSpace(sqlite.insertSQL([]string{"hash", "name"})))
	assert.Equal(t, `ALTER TABLE employees ADD COLUMN "dept" TEXT`, strings.TrimSpace(sqlite.addColumnSQL("dept")))

	pg, err := loadDialect("postgres")
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO employees ("hash", "name") VALUES ($1, $2) ON CONFLICT (hash) DO NOTHING`,
		strings.TrimSpace(pg.insertSQL([]string{"hash", "name"})))

	_, err = loadDialect("oracle")
	assert.Error(t, err)
}

func TestPageOffset(t *testing.T) {
	off, ok := pageOffset(3, 10)
	assert.True(t, ok)
	assert.Equal(t, int64(20), off)

	_, ok = pageOffset(0, 10)
	assert.False(t, ok)

	_, ok = pageOffset(int(^uint(0)>>1), 100)
	assert.False(t, ok)
}
