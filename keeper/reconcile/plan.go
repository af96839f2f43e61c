// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package reconcile

import (
	"github.com/qcplatform/schemad/keeper/inspect"
	"github.com/qcplatform/schemad/keeper/schema"
)

// ColumnPlan lists the column work needed to move a live table to the
// target definition: drops first, then adds, then modifies.
type ColumnPlan struct {
	Drop   []string
	Add    []*schema.Column
	Modify []*schema.Column
}

// Empty reports whether no column change is needed.
func (plan ColumnPlan) Empty() bool {
	return len(plan.Drop) == 0 && len(plan.Add) == 0 && len(plan.Modify) == 0
}

// PlanColumns computes the column diff between target and live. Primary-key
// columns are never planned for dropping.
func PlanColumns(def *schema.TableDefinition, live []inspect.Column) ColumnPlan {
	var plan ColumnPlan

	for i := range live {
		col := &live[i]
		if col.IsPrimary() {
			continue
		}
		if _, ok := def.FindColumn(col.Name); !ok {
			plan.Drop = append(plan.Drop, col.Name)
		}
	}

	for i := range def.Columns {
		col := &def.Columns[i]
		liveCol := findLiveColumn(live, col.Name)
		switch {
		case liveCol == nil:
			plan.Add = append(plan.Add, col)
		case columnChanged(col, liveCol):
			plan.Modify = append(plan.Modify, col)
		}
	}

	return plan
}

// IndexPlan lists the index work needed: drops by name, creates by target
// definition.
type IndexPlan struct {
	Drop   []string
	Create []*schema.Index
}

// Empty reports whether no index change is needed.
func (plan IndexPlan) Empty() bool {
	return len(plan.Drop) == 0 && len(plan.Create) == 0
}

// PlanIndexes computes the index diff between target and live. The PRIMARY
// pseudo-index is ignored, and single-column uniqueness already carried by a
// column's unique attribute is deduplicated on both sides. An index whose
// columns are all in droppedColumns is not planned for dropping: MySQL
// removes it together with its last column.
func PlanIndexes(def *schema.TableDefinition, live []inspect.Index, droppedColumns []string) IndexPlan {
	var plan IndexPlan

	dropped := make(map[string]bool, len(droppedColumns))
	for _, name := range droppedColumns {
		dropped[name] = true
	}

	wanted := make(map[string]bool)
	for i := range def.Indexes {
		idx := &def.Indexes[i]
		if coveredByColumnUnique(def, idx) {
			continue
		}
		wanted[idx.Name] = true
	}

	liveNames := make(map[string]bool, len(live))
	for i := range live {
		idx := &live[i]
		liveNames[idx.Name] = true
		if idx.Name == "PRIMARY" || wanted[idx.Name] {
			continue
		}
		if backsColumnUnique(def, idx) || removedWithColumns(idx, dropped) {
			continue
		}
		plan.Drop = append(plan.Drop, idx.Name)
	}

	for i := range def.Indexes {
		idx := &def.Indexes[i]
		if coveredByColumnUnique(def, idx) || liveNames[idx.Name] {
			continue
		}
		plan.Create = append(plan.Create, idx)
	}

	return plan
}

// removedWithColumns reports whether every column of a live index is
// planned for dropping, so the index disappears on its own.
func removedWithColumns(idx *inspect.Index, dropped map[string]bool) bool {
	if len(dropped) == 0 || len(idx.Columns) == 0 {
		return false
	}
	for _, column := range idx.Columns {
		if !dropped[column] {
			return false
		}
	}
	return true
}

// Differs reports whether the live structure deviates from the target at
// all; used by drift detection.
func Differs(def *schema.TableDefinition, liveColumns []inspect.Column, liveIndexes []inspect.Index) bool {
	columns := PlanColumns(def, liveColumns)
	return !columns.Empty() || !PlanIndexes(def, liveIndexes, columns.Drop).Empty()
}
