// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package schemadb

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qcplatform/schemad/keeper/migration"
	"github.com/qcplatform/schemad/keeper/schema"
)

func TestLockConflicts(t *testing.T) {
	singleUser := migration.LockRequest{
		Type:          migration.LockSingleTable,
		TableName:     "qc_user",
		DatabaseType:  schema.Main,
		PartitionType: schema.PartitionNone,
	}

	tests := []struct {
		name     string
		req      migration.LockRequest
		existing migration.Lock
		want     bool
	}{
		{
			name:     "all-tables lock blocks everything",
			req:      singleUser,
			existing: migration.Lock{Type: migration.LockAllTables},
			want:     true,
		},
		{
			name:     "all-tables request blocked by any active lock",
			req:      migration.LockRequest{Type: migration.LockAllTables},
			existing: migration.Lock{Type: migration.LockSingleTable, TableName: "qc_other"},
			want:     true,
		},
		{
			name: "all-tables request blocked by all-tables lock",
			req:  migration.LockRequest{Type: migration.LockAllTables},
			existing: migration.Lock{
				Type: migration.LockAllTables,
			},
			want: true,
		},
		{
			name: "same table, database and partition conflicts",
			req:  singleUser,
			existing: migration.Lock{
				Type:          migration.LockSingleTable,
				TableName:     "qc_user",
				DatabaseType:  schema.Main,
				PartitionType: schema.PartitionNone,
			},
			want: true,
		},
		{
			name: "different table does not conflict",
			req:  singleUser,
			existing: migration.Lock{
				Type:          migration.LockSingleTable,
				TableName:     "qc_order",
				DatabaseType:  schema.Main,
				PartitionType: schema.PartitionNone,
			},
			want: false,
		},
		{
			name: "same table in a different database role does not conflict",
			req:  singleUser,
			existing: migration.Lock{
				Type:          migration.LockSingleTable,
				TableName:     "qc_user",
				DatabaseType:  schema.Log,
				PartitionType: schema.PartitionNone,
			},
			want: false,
		},
		{
			name: "same table with a different partitioning does not conflict",
			req:  singleUser,
			existing: migration.Lock{
				Type:          migration.LockSingleTable,
				TableName:     "qc_user",
				DatabaseType:  schema.Main,
				PartitionType: schema.PartitionStore,
			},
			want: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, conflicts(test.req, &test.existing))
		})
	}
}

func TestHolderIdentityUnique(t *testing.T) {
	assert.NotEqual(t, holderIdentity(), holderIdentity(),
		"the nonce keeps two acquisitions from the same process apart")
}
