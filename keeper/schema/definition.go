// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package schema

import "strings"

// ActionDrop marks a definition as a pending table deletion.
const ActionDrop = "DROP"

// Default-value sentinels that must be emitted unquoted.
const (
	DefaultCurrentTimestamp         = "CURRENT_TIMESTAMP"
	DefaultCurrentTimestampOnUpdate = "CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP"
)

// TableDefinition is the structured target description of one table:
// either a DROP tombstone or a full column and index list.
type TableDefinition struct {
	TableName string   `json:"tableName"`
	Action    string   `json:"action,omitempty"`
	Columns   []Column `json:"columns,omitempty"`
	Indexes   []Index  `json:"indexes,omitempty"`
}

// Column is the desired definition of a single column.
type Column struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Length        int      `json:"length,omitempty"`
	Precision     int      `json:"precision,omitempty"`
	Scale         int      `json:"scale,omitempty"`
	Values        []string `json:"values,omitempty"`
	AllowNull     *bool    `json:"allowNull,omitempty"`
	DefaultValue  *string  `json:"defaultValue,omitempty"`
	PrimaryKey    bool     `json:"primaryKey,omitempty"`
	AutoIncrement bool     `json:"autoIncrement,omitempty"`
	Unique        bool     `json:"unique,omitempty"`
	Comment       string   `json:"comment,omitempty"`
}

// Nullable reports whether the column accepts NULL. An unspecified
// allowNull means nullable, except on primary-key columns, which MySQL
// forces to NOT NULL.
func (c *Column) Nullable() bool {
	if c.PrimaryKey {
		return false
	}
	return c.AllowNull == nil || *c.AllowNull
}

// Index is a secondary index over one or more columns.
type Index struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
	Unique bool     `json:"unique,omitempty"`
}

// IsDrop reports whether the definition is a deletion tombstone.
func (d *TableDefinition) IsDrop() bool {
	return strings.EqualFold(d.Action, ActionDrop)
}

// FindColumn returns the column with the given name.
func (d *TableDefinition) FindColumn(name string) (*Column, bool) {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i], true
		}
	}
	return nil, false
}

// PrimaryKeys returns the names of all primary-key columns.
func (d *TableDefinition) PrimaryKeys() []string {
	var keys []string
	for i := range d.Columns {
		if d.Columns[i].PrimaryKey {
			keys = append(keys, d.Columns[i].Name)
		}
	}
	return keys
}

// Validate checks structural invariants of the definition.
func (d *TableDefinition) Validate() error {
	if d.IsDrop() {
		return nil
	}
	if len(d.Columns) == 0 {
		return ErrValidation.New("definition has no columns")
	}
	seen := make(map[string]bool, len(d.Columns))
	for i := range d.Columns {
		col := &d.Columns[i]
		if col.Name == "" {
			return ErrValidation.New("column %d has no name", i)
		}
		if col.Type == "" {
			return ErrValidation.New("column %q has no type", col.Name)
		}
		if seen[col.Name] {
			return ErrValidation.New("duplicate column %q", col.Name)
		}
		seen[col.Name] = true
	}
	for i := range d.Indexes {
		idx := &d.Indexes[i]
		if idx.Name == "" {
			return ErrValidation.New("index %d has no name", i)
		}
		if len(idx.Fields) == 0 {
			return ErrValidation.New("index %q has no fields", idx.Name)
		}
		for _, field := range idx.Fields {
			if !seen[field] {
				return ErrValidation.New("index %q references unknown column %q", idx.Name, field)
			}
		}
	}
	return nil
}
