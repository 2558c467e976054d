package store

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed queries/*.yaml
var queryFiles embed.FS

// dialect is the SQL text one engine needs. Statements that take column
// lists carry %s verbs filled by the store.
type dialect struct {
	CreateTable     string `yaml:"create_table"`
	CreateNameIndex string `yaml:"create_name_index"`
	TableColumns    string `yaml:"table_columns"`
	AddColumn       string `yaml:"add_column"`
	Insert          string `yaml:"insert"`
	Count           string `yaml:"count"`
	SelectPage      string `yaml:"select_page"`
	SelectByName    string `yaml:"select_by_name"`
	HashExists      string `yaml:"hash_exists"`
	UpdateByHash    string `yaml:"update_by_hash"`

	// placeholder renders the n-th (1-based) bind parameter.
	placeholder func(n int) string
}

func loadDialect(name string) (*dialect, error) {
	data, err := queryFiles.ReadFile("queries/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("read %s queries: %w", name, err)
	}

	var d dialect
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse %s queries: %w", name, err)
	}

	for key, q := range map[string]string{
		"create_table":   d.CreateTable,
		"table_columns":  d.TableColumns,
		"add_column":     d.AddColumn,
		"insert":         d.Insert,
		"count":          d.Count,
		"select_page":    d.SelectPage,
		"select_by_name": d.SelectByName,
		"hash_exists":    d.HashExists,
		"update_by_hash": d.UpdateByHash,
	} {
		if strings.TrimSpace(q) == "" {
			return nil, fmt.Errorf("%s queries: %s is empty", name, key)
		}
	}

	switch name {
	case "postgres":
		d.placeholder = func(n int) string { return fmt.Sprintf("$%d", n) }
	default:
		d.placeholder = func(int) string { return "?" }
	}
	return &d, nil
}

// addColumnSQL renders the DDL for one already-validated column name.
func (d *dialect) addColumnSQL(column string) string {
	return fmt.Sprintf(d.AddColumn, quoteIdent(column))
}

// insertSQL renders an insert over the given columns.
func (d *dialect) insertSQL(columns []string) string {
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
		marks[i] = d.placeholder(i + 1)
	}
	return fmt.Sprintf(d.Insert, strings.Join(quoted, ", "), strings.Join(marks, ", "))
}
