// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package migrate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qcplatform/schemad/private/migrate"
)

func TestValidTableName(t *testing.T) {
	migration := migrate.Migration{Table: "qc_versions"}
	require.NoError(t, migration.ValidTableName())

	migration.Table = "qc_versions; DROP TABLE users"
	require.Error(t, migration.ValidTableName())

	migration.Table = "Versions"
	require.Error(t, migration.ValidTableName())
}

func TestValidateSteps(t *testing.T) {
	migration := migrate.Migration{
		Table: "qc_versions",
		Steps: []*migrate.Step{
			{Version: 0},
			{Version: 1},
			{Version: 2},
		},
	}
	require.NoError(t, migration.ValidateSteps())

	migration.Steps = []*migrate.Step{
		{Version: 1},
		{Version: 0},
	}
	require.Error(t, migration.ValidateSteps())
}

func TestTargetVersion(t *testing.T) {
	migration := migrate.Migration{
		Table: "qc_versions",
		Steps: []*migrate.Step{
			{Version: 0},
			{Version: 1},
			{Version: 2},
		},
	}

	truncated := migration.TargetVersion(1)
	require.Len(t, truncated.Steps, 2)
	assert.Equal(t, 1, truncated.Steps[1].Version)

	assert.Empty(t, migration.TargetVersion(-1).Steps)
}
