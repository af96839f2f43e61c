// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenPoolLimits(t *testing.T) {
	// sql.Open validates the DSN without dialing
	db, err := openPool(ConnParams{Host: "localhost", Port: 3306, User: "root", Database: "qc_main"})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.Equal(t, poolMaxOpen, db.Stats().MaxOpenConnections)
	// the idle cap is zero; database/sql does not expose the setting, but
	// a fresh pool must report no idle connections either way
	assert.Zero(t, db.Stats().Idle)
}
