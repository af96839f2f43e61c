// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qcplatform/schemad/keeper/reconcile"
	"github.com/qcplatform/schemad/keeper/schema"
)

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }

func TestTypeClause(t *testing.T) {
	tests := []struct {
		col  schema.Column
		want string
	}{
		{schema.Column{Type: "varchar", Length: 100}, "VARCHAR(100)"},
		{schema.Column{Type: "int", Length: 11}, "INT(11)"},
		{schema.Column{Type: "int"}, "INT"},
		{schema.Column{Type: "text", Length: 500}, "TEXT"},
		{schema.Column{Type: "datetime", Length: 6}, "DATETIME"},
		{schema.Column{Type: "timestamp"}, "TIMESTAMP"},
		{schema.Column{Type: "json"}, "JSON"},
		{schema.Column{Type: "decimal", Precision: 10, Scale: 2}, "DECIMAL(10,2)"},
		{schema.Column{Type: "decimal"}, "DECIMAL"},
		{schema.Column{Type: "enum", Values: []string{"a", "b"}}, "ENUM('a','b')"},
		{schema.Column{Type: "enum", Values: []string{"it's"}}, "ENUM('it''s')"},
		{schema.Column{Type: "set", Values: []string{"x", "y"}}, "SET('x','y')"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, reconcile.TypeClause(&test.col), test.want)
	}
}

func TestDefaultClause(t *testing.T) {
	col := schema.Column{Type: "varchar", Length: 10}
	assert.Equal(t, "", reconcile.DefaultClause(&col))

	col.DefaultValue = strptr("hello")
	assert.Equal(t, "DEFAULT 'hello'", reconcile.DefaultClause(&col))

	col.DefaultValue = strptr("it's")
	assert.Equal(t, "DEFAULT 'it''s'", reconcile.DefaultClause(&col))

	// timestamp sentinels are unquoted
	col = schema.Column{Type: "timestamp", DefaultValue: strptr("CURRENT_TIMESTAMP")}
	assert.Equal(t, "DEFAULT CURRENT_TIMESTAMP", reconcile.DefaultClause(&col))

	col.DefaultValue = strptr("current_timestamp on update current_timestamp")
	assert.Equal(t,
		"DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP",
		reconcile.DefaultClause(&col))
}

func TestColumnClause(t *testing.T) {
	col := schema.Column{
		Name:      "status",
		Type:      "tinyint",
		Length:    1,
		AllowNull: boolptr(false),
	}
	assert.Equal(t, "TINYINT(1) NOT NULL", reconcile.ColumnClause(&col))

	col = schema.Column{
		Name:          "user_id",
		Type:          "int",
		Length:        11,
		AllowNull:     boolptr(false),
		PrimaryKey:    true,
		AutoIncrement: true,
	}
	assert.Equal(t, "INT(11) NOT NULL AUTO_INCREMENT", reconcile.ColumnClause(&col))

	// primary keys are NOT NULL even when allowNull is unspecified
	col = schema.Column{
		Name:          "id",
		Type:          "int",
		PrimaryKey:    true,
		AutoIncrement: true,
	}
	assert.Equal(t, "INT NOT NULL AUTO_INCREMENT", reconcile.ColumnClause(&col))

	col = schema.Column{
		Name:    "code",
		Type:    "varchar",
		Length:  32,
		Unique:  true,
		Comment: "external code",
	}
	assert.Equal(t, "VARCHAR(32) UNIQUE COMMENT 'external code'", reconcile.ColumnClause(&col))
}

func TestCreateTable(t *testing.T) {
	def := &schema.TableDefinition{
		TableName: "qc_user",
		Columns: []schema.Column{
			{Name: "user_id", Type: "int", Length: 11, AllowNull: boolptr(false), PrimaryKey: true, AutoIncrement: true},
			{Name: "name", Type: "varchar", Length: 100},
			{Name: "code", Type: "varchar", Length: 32, Unique: true},
		},
		Indexes: []schema.Index{
			{Name: "idx_name", Fields: []string{"name"}},
			// duplicates the column-level unique attribute; must be skipped
			{Name: "uk_code", Fields: []string{"code"}, Unique: true},
		},
	}

	sql := reconcile.CreateTable("qc_user", def)
	assert.Contains(t, sql, "CREATE TABLE `qc_user`")
	assert.Contains(t, sql, "`user_id` INT(11) NOT NULL AUTO_INCREMENT")
	assert.Contains(t, sql, "PRIMARY KEY (`user_id`)")
	assert.Contains(t, sql, "KEY `idx_name` (`name`)")
	assert.NotContains(t, sql, "uk_code")
	assert.Contains(t, sql, "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4")
}

func TestAlterStatements(t *testing.T) {
	col := schema.Column{Name: "age", Type: "int", Length: 11}
	assert.Equal(t,
		"ALTER TABLE `qc_user` ADD COLUMN `age` INT(11)",
		reconcile.AddColumn("qc_user", &col))
	assert.Equal(t,
		"ALTER TABLE `qc_user` DROP COLUMN `age`",
		reconcile.DropColumn("qc_user", "age"))
	assert.Equal(t,
		"ALTER TABLE `qc_user` MODIFY COLUMN `age` INT(11)",
		reconcile.ModifyColumn("qc_user", &col))
	assert.Equal(t,
		"DROP TABLE IF EXISTS `qc_user`",
		reconcile.DropTable("qc_user"))

	idx := schema.Index{Name: "idx_age", Fields: []string{"age"}}
	assert.Equal(t,
		"CREATE INDEX `idx_age` ON `qc_user` (`age`)",
		reconcile.CreateIndex("qc_user", &idx))
	idx.Unique = true
	assert.Equal(t,
		"CREATE UNIQUE INDEX `idx_age` ON `qc_user` (`age`)",
		reconcile.CreateIndex("qc_user", &idx))
	assert.Equal(t,
		"DROP INDEX `idx_age` ON `qc_user`",
		reconcile.DropIndex("qc_user", "idx_age"))
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, "`plain`", reconcile.QuoteIdent("plain"))
	assert.Equal(t, "`wei``rd`", reconcile.QuoteIdent("wei`rd"))
}
