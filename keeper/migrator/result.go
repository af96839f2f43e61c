// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package migrator

import (
	"github.com/qcplatform/schemad/keeper/reconcile"
	"github.com/qcplatform/schemad/keeper/schema"
)

// FailedSQL is one statement that did not execute, kept for the operation
// summary.
type FailedSQL struct {
	Table   string `json:"table"`
	BatchID string `json:"batchId"`
	SQL     string `json:"sql"`
	Error   string `json:"error"`
}

// SchemaOutcome is the per-schema, per-tenant result of an operation.
type SchemaOutcome struct {
	TableName     string               `json:"tableName"`
	DatabaseType  schema.DatabaseType  `json:"databaseType"`
	PartitionType schema.PartitionType `json:"partitionType"`
	SchemaVersion string               `json:"schemaVersion"`
	EnterpriseID  int64                `json:"enterpriseId"`
	Success       bool                 `json:"success"`
	Skipped       bool                 `json:"skipped"`
	Tables        []string             `json:"tables,omitempty"`
	DDLCount      int                  `json:"ddlCount"`
	Error         string               `json:"error,omitempty"`
}

func (outcome *SchemaOutcome) fail(err error) {
	outcome.Success = false
	if outcome.Error == "" {
		outcome.Error = err.Error()
	}
}

// OperationResult is the aggregated response of one orchestrator entry
// point. Success is true only when every schema succeeded.
type OperationResult struct {
	BatchID   string           `json:"batchId"`
	Success   bool             `json:"success"`
	Schemas   []*SchemaOutcome `json:"schemas"`
	FailedSQL []FailedSQL      `json:"failedSql,omitempty"`
}

func newOperationResult() *OperationResult {
	return &OperationResult{BatchID: newBatchID()}
}

func (result *OperationResult) schemaOutcome(entry *schema.TableSchema, enterpriseID int64) *SchemaOutcome {
	outcome := &SchemaOutcome{
		TableName:     entry.TableName,
		DatabaseType:  entry.DatabaseType,
		PartitionType: entry.PartitionType,
		SchemaVersion: entry.SchemaVersion,
		EnterpriseID:  enterpriseID,
		Success:       true,
	}
	result.Schemas = append(result.Schemas, outcome)
	return outcome
}

func (result *OperationResult) addSchemaError(entry *schema.TableSchema, err error) {
	outcome := result.schemaOutcome(entry, 0)
	outcome.fail(err)
}

func (result *OperationResult) addFailedSQL(table string, ddl reconcile.DDL) {
	failed := FailedSQL{
		Table:   table,
		BatchID: result.BatchID,
		SQL:     ddl.SQL,
	}
	if ddl.Err != nil {
		failed.Error = ddl.Err.Error()
	}
	result.FailedSQL = append(result.FailedSQL, failed)
}

func (result *OperationResult) finish() {
	result.Success = true
	for _, outcome := range result.Schemas {
		if !outcome.Success {
			result.Success = false
			return
		}
	}
}
