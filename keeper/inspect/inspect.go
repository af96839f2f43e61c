// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

// Package inspect reads live column and index metadata from a MySQL
// database through INFORMATION_SCHEMA.
package inspect

import (
	"context"
	"database/sql"
	"strings"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
)

var (
	// Error is the default error class for the inspect package.
	Error = errs.Class("inspect")

	mon = monkit.Package()
)

// Column is the live definition of one column as MySQL reports it.
type Column struct {
	Name       string
	DataType   string // e.g. "varchar", "int", "enum"
	ColumnType string // full type, e.g. "varchar(100)", "enum('a','b')"
	Length     int64
	Precision  int64
	Scale      int64
	Nullable   bool
	Default    *string
	Key        string // "PRI", "UNI", "MUL" or empty
	Extra      string // e.g. "auto_increment"
	Comment    string
}

// IsPrimary reports whether the column is part of the primary key.
func (c *Column) IsPrimary() bool { return c.Key == "PRI" }

// IsAutoIncrement reports whether the column auto-increments.
func (c *Column) IsAutoIncrement() bool {
	return strings.Contains(strings.ToLower(c.Extra), "auto_increment")
}

// EnumValues parses the enumerated value set out of the full column type,
// honoring doubled-quote escaping: enum('a','b','c''c') -> [a b c'c].
func (c *Column) EnumValues() []string {
	return ParseEnumValues(c.ColumnType)
}

// Index is one live secondary index, columns in index order.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Inspector reads table metadata from one database.
type Inspector struct {
	db       *sql.DB
	database string
}

// New creates an inspector bound to a pool and its database name.
func New(db *sql.DB, database string) *Inspector {
	return &Inspector{db: db, database: database}
}

// Exists reports whether the table exists. The primary check goes through
// the SHOW TABLES listing with a probe query as fallback.
func (inspector *Inspector) Exists(ctx context.Context, table string) (_ bool, err error) {
	defer mon.Task()(&ctx)(&err)

	rows, err := inspector.db.QueryContext(ctx, `SHOW TABLES LIKE ?`, escapeLikePattern(table))
	if err == nil {
		defer func() { err = errs.Combine(err, rows.Close()) }()
		if rows.Next() {
			return true, nil
		}
		if err := rows.Err(); err != nil {
			return false, Error.Wrap(err)
		}
		return false, nil
	}

	// fallback probe; an error here means the table is not selectable
	_, probeErr := inspector.db.ExecContext(ctx, "SELECT 1 FROM `"+table+"` LIMIT 1")
	return probeErr == nil, nil
}

// Columns returns the live columns of the table in ordinal order.
func (inspector *Inspector) Columns(ctx context.Context, table string) (_ []Column, err error) {
	defer mon.Task()(&ctx)(&err)

	rows, err := inspector.db.QueryContext(ctx, `
		SELECT COLUMN_NAME, DATA_TYPE, COLUMN_TYPE,
			COALESCE(CHARACTER_MAXIMUM_LENGTH, 0),
			COALESCE(NUMERIC_PRECISION, 0),
			COALESCE(NUMERIC_SCALE, 0),
			IS_NULLABLE, COLUMN_DEFAULT, COLUMN_KEY, EXTRA, COLUMN_COMMENT
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`,
		inspector.database, table)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, Error.Wrap(rows.Close())) }()

	var columns []Column
	for rows.Next() {
		var col Column
		var nullable string
		var def sql.NullString
		err := rows.Scan(&col.Name, &col.DataType, &col.ColumnType,
			&col.Length, &col.Precision, &col.Scale,
			&nullable, &def, &col.Key, &col.Extra, &col.Comment)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		col.Nullable = strings.EqualFold(nullable, "YES")
		if def.Valid {
			value := def.String
			col.Default = &value
		}
		columns = append(columns, col)
	}
	return columns, Error.Wrap(rows.Err())
}

// Indexes returns the live indexes of the table grouped by index name,
// preserving column order within each index.
func (inspector *Inspector) Indexes(ctx context.Context, table string) (_ []Index, err error) {
	defer mon.Task()(&ctx)(&err)

	rows, err := inspector.db.QueryContext(ctx, `
		SELECT INDEX_NAME, COLUMN_NAME, NON_UNIQUE
		FROM INFORMATION_SCHEMA.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX`,
		inspector.database, table)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, Error.Wrap(rows.Close())) }()

	var indexes []Index
	byName := make(map[string]int)
	for rows.Next() {
		var name, column string
		var nonUnique int
		if err := rows.Scan(&name, &column, &nonUnique); err != nil {
			return nil, Error.Wrap(err)
		}
		if at, ok := byName[name]; ok {
			indexes[at].Columns = append(indexes[at].Columns, column)
			continue
		}
		byName[name] = len(indexes)
		indexes = append(indexes, Index{
			Name:    name,
			Columns: []string{column},
			Unique:  nonUnique == 0,
		})
	}
	return indexes, Error.Wrap(rows.Err())
}

// ShowCreate returns the CREATE TABLE statement as a diagnostic fallback.
func (inspector *Inspector) ShowCreate(ctx context.Context, table string) (_ string, err error) {
	defer mon.Task()(&ctx)(&err)

	var name, create string
	err = inspector.db.QueryRowContext(ctx, "SHOW CREATE TABLE `"+table+"`").Scan(&name, &create)
	return create, Error.Wrap(err)
}

// TableNames returns base table names matching the prefix. An empty prefix
// returns every base table in the database.
func (inspector *Inspector) TableNames(ctx context.Context, prefix string) (_ []string, err error) {
	defer mon.Task()(&ctx)(&err)

	rows, err := inspector.db.QueryContext(ctx, `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
			AND TABLE_NAME LIKE ?
		ORDER BY TABLE_NAME`,
		inspector.database, escapeLikePattern(prefix)+"%")
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, Error.Wrap(rows.Close())) }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, Error.Wrap(err)
		}
		names = append(names, name)
	}
	return names, Error.Wrap(rows.Err())
}

// ParseEnumValues extracts values from an enum or set column type string.
func ParseEnumValues(columnType string) []string {
	open := strings.IndexByte(columnType, '(')
	end := strings.LastIndexByte(columnType, ')')
	if open < 0 || end <= open {
		return nil
	}
	inner := columnType[open+1 : end]

	var values []string
	var current strings.Builder
	inQuote := false
	for i := 0; i < len(inner); i++ {
		ch := inner[i]
		switch {
		case ch == '\'' && !inQuote:
			inQuote = true
		case ch == '\'' && inQuote:
			// doubled quote is an escaped quote inside the value
			if i+1 < len(inner) && inner[i+1] == '\'' {
				current.WriteByte('\'')
				i++
				continue
			}
			inQuote = false
			values = append(values, current.String())
			current.Reset()
		case inQuote:
			current.WriteByte(ch)
		}
	}
	return values
}

// escapeLikePattern escapes LIKE wildcards so table names match literally.
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return s
}
