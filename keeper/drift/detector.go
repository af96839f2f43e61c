// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

// Package drift compares a reference baseline database against the active
// catalog and proposes new catalog versions for every observed difference.
package drift

import (
	"context"
	"fmt"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/qcplatform/schemad/keeper/inspect"
	"github.com/qcplatform/schemad/keeper/reconcile"
	"github.com/qcplatform/schemad/keeper/schema"
	"github.com/qcplatform/schemad/keeper/shard"
	"github.com/qcplatform/schemad/private/version"
)

var (
	// Error is the default error class for the drift package.
	Error = errs.Class("drift")

	mon = monkit.Package()
)

// initialVersion is assigned to newly detected tables.
const initialVersion = "1.0.0"

// Source is the metadata access the detector needs from the baseline
// database; satisfied by *inspect.Inspector.
type Source interface {
	TableNames(ctx context.Context, prefix string) ([]string, error)
	Columns(ctx context.Context, table string) ([]inspect.Column, error)
	Indexes(ctx context.Context, table string) ([]inspect.Index, error)
}

// Detector inspects the baseline and emits proposed catalog versions.
//
// architecture: Service
type Detector struct {
	log      *zap.Logger
	baseline Source
	catalog  schema.Catalog
	nowFn    func() time.Time
}

// NewDetector creates a drift detector over the baseline source.
func NewDetector(log *zap.Logger, baseline Source, catalog schema.Catalog) *Detector {
	return &Detector{
		log:      log,
		baseline: baseline,
		catalog:  catalog,
		nowFn:    time.Now,
	}
}

// DetectAll classifies every baseline table against the catalog and returns
// the full proposal batch: new tables, changed tables and drop tombstones.
func (detector *Detector) DetectAll(ctx context.Context) (_ []*schema.TableSchema, err error) {
	defer mon.Task()(&ctx)(&err)

	names, err := detector.baseline.TableNames(ctx, "")
	if err != nil {
		return nil, Error.Wrap(err)
	}
	active, err := detector.catalog.ListAllActive(ctx)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	byKey := make(map[schema.Key]*schema.TableSchema, len(active))
	for _, entry := range active {
		byKey[entry.Key()] = entry
	}
	matched := make(map[schema.Key]bool)

	var proposals []*schema.TableSchema
	for _, name := range names {
		parsed := parseBaselineName(name)

		if entry, ok := byKey[parsed.key()]; ok {
			matched[entry.Key()] = true
			proposal, err := detector.diffExisting(ctx, name, entry)
			if err != nil {
				return nil, err
			}
			if proposal != nil {
				proposals = append(proposals, proposal)
			}
			continue
		}

		if entry := matchShard(active, name); entry != nil {
			matched[entry.Key()] = true
			continue
		}

		proposal, err := detector.synthesizeNew(ctx, name, parsed)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, proposal)
	}

	for _, entry := range active {
		if matched[entry.Key()] {
			continue
		}
		if entry.Definition.IsDrop() {
			// already tombstoned, nothing more to propose
			continue
		}
		proposals = append(proposals, detector.proposeDrop(entry))
	}

	return proposals, nil
}

// DetectTable classifies a single baseline table and returns its proposal,
// or nil when the catalog already matches.
func (detector *Detector) DetectTable(ctx context.Context, name string) (_ *schema.TableSchema, err error) {
	defer mon.Task()(&ctx)(&err)

	parsed := parseBaselineName(name)
	entry, err := detector.catalog.GetActive(ctx, parsed.Logical, parsed.DatabaseType, parsed.PartitionType)
	if err != nil {
		if schema.ErrNotFound.Has(err) {
			return detector.synthesizeNew(ctx, name, parsed)
		}
		return nil, Error.Wrap(err)
	}
	return detector.diffExisting(ctx, name, entry)
}

// SaveDetected persists a proposal batch through the catalog.
func (detector *Detector) SaveDetected(ctx context.Context, batch []*schema.TableSchema) (err error) {
	defer mon.Task()(&ctx)(&err)

	var group errs.Group
	for _, proposal := range batch {
		if err := detector.catalog.PutNewVersion(ctx, proposal); err != nil {
			detector.log.Error("saving detected change failed",
				zap.String("table", proposal.TableName),
				zap.Error(err))
			group.Add(err)
		}
	}
	return Error.Wrap(group.Err())
}

// diffExisting returns a proposal when the baseline structure deviates from
// the catalog definition, nil otherwise.
func (detector *Detector) diffExisting(ctx context.Context, baselineName string, entry *schema.TableSchema) (*schema.TableSchema, error) {
	if entry.Definition.IsDrop() {
		// table came back after a tombstone; re-synthesize from baseline
		parsed := parseBaselineName(baselineName)
		proposal, err := detector.synthesizeNew(ctx, baselineName, parsed)
		if err != nil {
			return nil, err
		}
		proposal.SchemaVersion = detector.nextVersion(entry.SchemaVersion)
		proposal.TimeFormat = entry.TimeFormat
		return proposal, nil
	}

	liveColumns, err := detector.baseline.Columns(ctx, baselineName)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	liveIndexes, err := detector.baseline.Indexes(ctx, baselineName)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	if !reconcile.Differs(&entry.Definition, liveColumns, liveIndexes) {
		return nil, nil
	}

	definition := synthesizeDefinition(detector.log, entry.TableName, liveColumns, liveIndexes)
	proposal := &schema.TableSchema{
		TableName:       entry.TableName,
		DatabaseType:    entry.DatabaseType,
		PartitionType:   entry.PartitionType,
		TimeInterval:    entry.TimeInterval,
		TimeFormat:      entry.TimeFormat,
		SchemaVersion:   detector.nextVersion(entry.SchemaVersion),
		Definition:      definition,
		ChangesDetected: fmt.Sprintf("structure drift against baseline table %s", baselineName),
	}
	return proposal, nil
}

// synthesizeNew introspects a baseline table with no catalog entry and
// proposes its initial version.
func (detector *Detector) synthesizeNew(ctx context.Context, baselineName string, parsed parsedName) (*schema.TableSchema, error) {
	liveColumns, err := detector.baseline.Columns(ctx, baselineName)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	liveIndexes, err := detector.baseline.Indexes(ctx, baselineName)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	definition := synthesizeDefinition(detector.log, parsed.Logical, liveColumns, liveIndexes)
	proposal := &schema.TableSchema{
		TableName:       parsed.Logical,
		DatabaseType:    parsed.DatabaseType,
		PartitionType:   parsed.PartitionType,
		TimeInterval:    parsed.TimeInterval,
		SchemaVersion:   initialVersion,
		Definition:      definition,
		ChangesDetected: fmt.Sprintf("new table detected from baseline table %s", baselineName),
	}
	if parsed.PartitionType == schema.PartitionTime {
		proposal.TimeFormat = shard.DefaultFormat(parsed.TimeInterval)
	}
	return proposal, nil
}

// proposeDrop tombstones a catalog entry whose baseline table disappeared.
func (detector *Detector) proposeDrop(entry *schema.TableSchema) *schema.TableSchema {
	return &schema.TableSchema{
		TableName:     entry.TableName,
		DatabaseType:  entry.DatabaseType,
		PartitionType: entry.PartitionType,
		TimeInterval:  entry.TimeInterval,
		TimeFormat:    entry.TimeFormat,
		SchemaVersion: detector.nextVersion(entry.SchemaVersion),
		Definition: schema.TableDefinition{
			TableName: entry.TableName,
			Action:    schema.ActionDrop,
		},
		ChangesDetected: "table no longer present in baseline",
	}
}

// nextVersion bumps the patch component; a non-semver current version gets
// a timestamp appended instead.
func (detector *Detector) nextVersion(current string) string {
	next, err := version.NextPatch(current)
	if err != nil {
		return fmt.Sprintf("%s.%d", current, detector.nowFn().Unix())
	}
	return next
}

// matchShard finds the catalog entry whose shard pattern matches the
// baseline physical name.
func matchShard(active []*schema.TableSchema, name string) *schema.TableSchema {
	for _, entry := range active {
		pattern := shardPattern(entry)
		if pattern != nil && pattern.MatchString(name) {
			return entry
		}
	}
	return nil
}
