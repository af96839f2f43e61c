// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package drift

import (
	"strings"

	"go.uber.org/zap"

	"github.com/qcplatform/schemad/keeper/inspect"
	"github.com/qcplatform/schemad/keeper/schema"
)

var integerTypes = map[string]bool{
	"tinyint": true, "smallint": true, "mediumint": true,
	"int": true, "bigint": true,
}

// synthesizeDefinition builds a TableDefinition out of live baseline
// metadata, applying primary-key inference and unique-index deduplication.
func synthesizeDefinition(log *zap.Logger, logical string, liveColumns []inspect.Column, liveIndexes []inspect.Index) schema.TableDefinition {
	def := schema.TableDefinition{TableName: logical}

	for i := range liveColumns {
		def.Columns = append(def.Columns, synthesizeColumn(&liveColumns[i]))
	}

	inferPrimaryKey(log, logical, &def, liveColumns)

	for i := range liveIndexes {
		idx := &liveIndexes[i]
		if idx.Name == "PRIMARY" {
			continue
		}
		// single-column uniqueness stays on the column attribute
		if idx.Unique && len(idx.Columns) == 1 {
			if col, ok := def.FindColumn(idx.Columns[0]); ok && col.Unique {
				continue
			}
		}
		def.Indexes = append(def.Indexes, schema.Index{
			Name:   idx.Name,
			Fields: append([]string(nil), idx.Columns...),
			Unique: idx.Unique,
		})
	}

	return def
}

func synthesizeColumn(live *inspect.Column) schema.Column {
	col := schema.Column{
		Name:          live.Name,
		Type:          strings.ToUpper(live.DataType),
		PrimaryKey:    live.IsPrimary(),
		AutoIncrement: live.IsAutoIncrement(),
		Unique:        live.Key == "UNI",
		Comment:       live.Comment,
	}

	dataType := strings.ToLower(live.DataType)
	switch {
	case dataType == "enum" || dataType == "set":
		col.Values = live.EnumValues()
	case dataType == "decimal" || dataType == "numeric":
		col.Precision = int(live.Precision)
		col.Scale = int(live.Scale)
	case live.Length > 0:
		col.Length = int(live.Length)
	}

	if !live.Nullable {
		allowNull := false
		col.AllowNull = &allowNull
	}

	if live.Default != nil {
		value := *live.Default
		normalized := strings.ToUpper(strings.TrimSuffix(strings.TrimSpace(value), "()"))
		if normalized == schema.DefaultCurrentTimestamp {
			if strings.Contains(strings.ToLower(live.Extra), "on update") {
				value = schema.DefaultCurrentTimestampOnUpdate
			} else {
				value = schema.DefaultCurrentTimestamp
			}
		}
		col.DefaultValue = &value
	}

	return col
}

// inferPrimaryKey decides which column carries the primary key of a newly
// detected table:
//
//  1. a column named <base>_id (base without the qc_ prefix) that is an
//     auto-increment integer,
//  2. otherwise the single auto-increment integer column,
//  3. otherwise a single PRI-keyed integer column whose name contains "id".
//
// When nothing matches, the PRI marks recovered from the baseline stand and
// a warning is logged.
func inferPrimaryKey(log *zap.Logger, logical string, def *schema.TableDefinition, live []inspect.Column) {
	preferred := strings.TrimPrefix(logical, "qc_") + "_id"

	if col := findIntegerColumn(def, live, func(col *schema.Column, l *inspect.Column) bool {
		return col.Name == preferred && l.IsAutoIncrement()
	}); col != nil {
		col.PrimaryKey = true
		return
	}

	var autoInc *schema.Column
	count := 0
	for i := range def.Columns {
		col := &def.Columns[i]
		l := findLive(live, col.Name)
		if l != nil && l.IsAutoIncrement() && integerTypes[strings.ToLower(l.DataType)] {
			autoInc = col
			count++
		}
	}
	if count == 1 {
		autoInc.PrimaryKey = true
		return
	}

	var keyed *schema.Column
	count = 0
	for i := range def.Columns {
		col := &def.Columns[i]
		l := findLive(live, col.Name)
		if l != nil && l.IsPrimary() && integerTypes[strings.ToLower(l.DataType)] &&
			strings.Contains(strings.ToLower(col.Name), "id") {
			keyed = col
			count++
		}
	}
	if count == 1 {
		keyed.PrimaryKey = true
		return
	}

	if len(def.PrimaryKeys()) == 0 {
		log.Warn("could not infer a primary key for detected table",
			zap.String("table", logical))
	}
}

func findIntegerColumn(def *schema.TableDefinition, live []inspect.Column, match func(*schema.Column, *inspect.Column) bool) *schema.Column {
	for i := range def.Columns {
		col := &def.Columns[i]
		l := findLive(live, col.Name)
		if l == nil || !integerTypes[strings.ToLower(l.DataType)] {
			continue
		}
		if match(col, l) {
			return col
		}
	}
	return nil
}

func findLive(live []inspect.Column, name string) *inspect.Column {
	for i := range live {
		if live[i].Name == name {
			return &live[i]
		}
	}
	return nil
}
