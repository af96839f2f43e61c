// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package shard_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/qcplatform/schemad/keeper/schema"
	"github.com/qcplatform/schemad/keeper/shard"
	"github.com/qcplatform/schemad/keeper/tenant"
)

func TestExpandNone(t *testing.T) {
	ctx := context.Background()
	expander := shard.NewExpander(zaptest.NewLogger(t), nil)

	entry := &schema.TableSchema{
		TableName:     "qc_user",
		DatabaseType:  schema.Main,
		PartitionType: schema.PartitionNone,
	}
	names, err := expander.Expand(ctx, entry, &tenant.Descriptor{ID: 1}, shard.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"qc_user"}, names)
}

func TestExpandStoreWithExplicitID(t *testing.T) {
	ctx := context.Background()
	expander := shard.NewExpander(zaptest.NewLogger(t), nil)

	entry := &schema.TableSchema{
		TableName:     "qc_sale",
		DatabaseType:  schema.Order,
		PartitionType: schema.PartitionStore,
	}
	// a single-store run never touches the store directory
	names, err := expander.Expand(ctx, entry, &tenant.Descriptor{ID: 1},
		shard.Options{StoreID: "S001"})
	require.NoError(t, err)
	assert.Equal(t, []string{"qc_sale_S001"}, names)
}

func TestExpandTimeDefaultRange(t *testing.T) {
	ctx := context.Background()
	expander := shard.NewExpander(zaptest.NewLogger(t), nil)

	entry := &schema.TableSchema{
		TableName:     "qc_op_log",
		DatabaseType:  schema.Log,
		PartitionType: schema.PartitionTime,
		TimeInterval:  schema.IntervalMonth,
		TimeFormat:    "_YYYYMM",
	}
	now := time.Date(2025, time.December, 20, 10, 0, 0, 0, time.UTC)
	names, err := expander.Expand(ctx, entry, &tenant.Descriptor{ID: 1},
		shard.Options{Now: func() time.Time { return now }})
	require.NoError(t, err)
	assert.Equal(t, []string{"qc_op_log_202512", "qc_op_log_202601"}, names,
		"default range covers the current and the next window")
}

func TestExpandTimeExplicitRange(t *testing.T) {
	ctx := context.Background()
	expander := shard.NewExpander(zaptest.NewLogger(t), nil)

	entry := &schema.TableSchema{
		TableName:     "qc_op_log",
		DatabaseType:  schema.Log,
		PartitionType: schema.PartitionTime,
		TimeInterval:  schema.IntervalDay,
		TimeFormat:    "_YYYYMMDD",
	}
	names, err := expander.Expand(ctx, entry, &tenant.Descriptor{ID: 1}, shard.Options{
		From: time.Date(2025, time.February, 27, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"qc_op_log_20250227",
		"qc_op_log_20250228",
		"qc_op_log_20250301",
		"qc_op_log_20250302",
	}, names)
}

func TestExpandStoreWithoutCatalog(t *testing.T) {
	ctx := context.Background()
	expander := shard.NewExpander(zaptest.NewLogger(t), nil)

	entry := &schema.TableSchema{
		TableName:     "qc_sale",
		DatabaseType:  schema.Order,
		PartitionType: schema.PartitionStore,
	}
	_, err := expander.Expand(ctx, entry, &tenant.Descriptor{ID: 7}, shard.Options{})
	require.Error(t, err, "full store expansion needs a configured store catalog")
}
