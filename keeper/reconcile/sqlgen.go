// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package reconcile

import (
	"strconv"
	"strings"

	"github.com/qcplatform/schemad/keeper/schema"
)

// noLengthTypes are data types that never take a (length) suffix.
var noLengthTypes = map[string]bool{
	"TINYBLOB": true, "BLOB": true, "MEDIUMBLOB": true, "LONGBLOB": true,
	"TINYTEXT": true, "TEXT": true, "MEDIUMTEXT": true, "LONGTEXT": true,
	"JSON": true, "GEOMETRY": true, "POINT": true, "LINESTRING": true,
	"POLYGON": true, "MULTIPOINT": true, "MULTILINESTRING": true,
	"MULTIPOLYGON": true, "GEOMETRYCOLLECTION": true,
	"DATE": true, "TIME": true, "DATETIME": true, "TIMESTAMP": true,
	"YEAR": true, "ENUM": true, "SET": true,
}

// decimalTypes take a (precision, scale) suffix.
var decimalTypes = map[string]bool{
	"DECIMAL": true, "NUMERIC": true,
}

// QuoteIdent quotes a MySQL identifier with backticks.
func QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// EscapeString escapes a literal for inclusion in single quotes.
func EscapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `''`)
	return s
}

// BaseType returns the upper-cased type name without any parenthesized
// length or precision, used for type comparison.
func BaseType(t string) string {
	if at := strings.IndexByte(t, '('); at >= 0 {
		t = t[:at]
	}
	return strings.ToUpper(strings.TrimSpace(t))
}

// TypeClause renders the full type of a column, applying the
// length-suppression rules and enum value lists.
func TypeClause(col *schema.Column) string {
	base := BaseType(col.Type)

	switch {
	case base == "ENUM" || base == "SET":
		values := make([]string, 0, len(col.Values))
		for _, v := range col.Values {
			values = append(values, "'"+EscapeString(v)+"'")
		}
		return base + "(" + strings.Join(values, ",") + ")"

	case decimalTypes[base]:
		if col.Precision > 0 {
			return base + "(" + strconv.Itoa(col.Precision) + "," + strconv.Itoa(col.Scale) + ")"
		}
		return base

	case noLengthTypes[base]:
		return base

	case col.Length > 0:
		return base + "(" + strconv.Itoa(col.Length) + ")"

	default:
		return base
	}
}

// DefaultClause renders the DEFAULT part of a column, empty when the column
// has no default. The two timestamp sentinels are emitted unquoted.
func DefaultClause(col *schema.Column) string {
	if col.DefaultValue == nil {
		return ""
	}
	value := strings.TrimSpace(*col.DefaultValue)
	switch strings.ToUpper(value) {
	case schema.DefaultCurrentTimestamp:
		return "DEFAULT CURRENT_TIMESTAMP"
	case schema.DefaultCurrentTimestampOnUpdate:
		return "DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP"
	}
	return "DEFAULT '" + EscapeString(*col.DefaultValue) + "'"
}

// ColumnClause renders the column definition after its name: type,
// nullability, auto-increment, uniqueness, default and comment.
func ColumnClause(col *schema.Column) string {
	var b strings.Builder
	b.WriteString(TypeClause(col))

	if !col.Nullable() {
		b.WriteString(" NOT NULL")
	}
	if col.AutoIncrement {
		b.WriteString(" AUTO_INCREMENT")
	}
	if col.Unique && !col.PrimaryKey {
		b.WriteString(" UNIQUE")
	}
	if clause := DefaultClause(col); clause != "" {
		b.WriteString(" ")
		b.WriteString(clause)
	}
	if col.Comment != "" {
		b.WriteString(" COMMENT '" + EscapeString(col.Comment) + "'")
	}
	return b.String()
}

// CreateTable renders a complete CREATE TABLE statement for the definition.
func CreateTable(table string, def *schema.TableDefinition) string {
	var parts []string
	for i := range def.Columns {
		col := &def.Columns[i]
		parts = append(parts, QuoteIdent(col.Name)+" "+ColumnClause(col))
	}

	if keys := def.PrimaryKeys(); len(keys) > 0 {
		quoted := make([]string, len(keys))
		for i, key := range keys {
			quoted[i] = QuoteIdent(key)
		}
		parts = append(parts, "PRIMARY KEY ("+strings.Join(quoted, ",")+")")
	}

	for i := range def.Indexes {
		idx := &def.Indexes[i]
		if coveredByColumnUnique(def, idx) {
			continue
		}
		fields := make([]string, len(idx.Fields))
		for j, field := range idx.Fields {
			fields[j] = QuoteIdent(field)
		}
		clause := "KEY "
		if idx.Unique {
			clause = "UNIQUE KEY "
		}
		parts = append(parts, clause+QuoteIdent(idx.Name)+" ("+strings.Join(fields, ",")+")")
	}

	return "CREATE TABLE " + QuoteIdent(table) + " (\n\t" +
		strings.Join(parts, ",\n\t") +
		"\n) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci"
}

// DropTable renders a DROP TABLE IF EXISTS statement.
func DropTable(table string) string {
	return "DROP TABLE IF EXISTS " + QuoteIdent(table)
}

// AddColumn renders an ALTER TABLE ... ADD COLUMN statement.
func AddColumn(table string, col *schema.Column) string {
	return "ALTER TABLE " + QuoteIdent(table) +
		" ADD COLUMN " + QuoteIdent(col.Name) + " " + ColumnClause(col)
}

// DropColumn renders an ALTER TABLE ... DROP COLUMN statement.
func DropColumn(table, column string) string {
	return "ALTER TABLE " + QuoteIdent(table) + " DROP COLUMN " + QuoteIdent(column)
}

// ModifyColumn renders an ALTER TABLE ... MODIFY COLUMN statement restating
// the full target definition.
func ModifyColumn(table string, col *schema.Column) string {
	return "ALTER TABLE " + QuoteIdent(table) +
		" MODIFY COLUMN " + QuoteIdent(col.Name) + " " + ColumnClause(col)
}

// CreateIndex renders a CREATE [UNIQUE] INDEX statement.
func CreateIndex(table string, idx *schema.Index) string {
	fields := make([]string, len(idx.Fields))
	for i, field := range idx.Fields {
		fields[i] = QuoteIdent(field)
	}
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return "CREATE " + unique + "INDEX " + QuoteIdent(idx.Name) +
		" ON " + QuoteIdent(table) + " (" + strings.Join(fields, ",") + ")"
}

// DropIndex renders a DROP INDEX statement.
func DropIndex(table, index string) string {
	return "DROP INDEX " + QuoteIdent(index) + " ON " + QuoteIdent(table)
}

// coveredByColumnUnique reports whether the index duplicates a single-column
// uniqueness already expressed through the column's unique attribute.
func coveredByColumnUnique(def *schema.TableDefinition, idx *schema.Index) bool {
	if !idx.Unique || len(idx.Fields) != 1 {
		return false
	}
	col, ok := def.FindColumn(idx.Fields[0])
	return ok && col.Unique
}
