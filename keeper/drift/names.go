// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package drift

import (
	"regexp"
	"strings"

	"github.com/qcplatform/schemad/keeper/schema"
	"github.com/qcplatform/schemad/keeper/shard"
)

// parsedName is the logical identity recovered from a baseline table name.
// Markers: `name@log|order|static` routes the database role, a `#store` or
// `#time_day|month|year` suffix configures partitioning. Both markers are
// stripped before persistence.
type parsedName struct {
	Logical       string
	DatabaseType  schema.DatabaseType
	PartitionType schema.PartitionType
	TimeInterval  schema.TimeInterval
}

func (p parsedName) key() schema.Key {
	return schema.Key{
		TableName:     p.Logical,
		DatabaseType:  p.DatabaseType,
		PartitionType: p.PartitionType,
	}
}

func parseBaselineName(raw string) parsedName {
	parsed := parsedName{
		Logical:       raw,
		DatabaseType:  schema.Main,
		PartitionType: schema.PartitionNone,
	}

	if at := strings.Index(parsed.Logical, "#"); at >= 0 {
		marker := parsed.Logical[at+1:]
		parsed.Logical = parsed.Logical[:at]
		switch marker {
		case "store":
			parsed.PartitionType = schema.PartitionStore
		case "time_day":
			parsed.PartitionType = schema.PartitionTime
			parsed.TimeInterval = schema.IntervalDay
		case "time_month":
			parsed.PartitionType = schema.PartitionTime
			parsed.TimeInterval = schema.IntervalMonth
		case "time_year":
			parsed.PartitionType = schema.PartitionTime
			parsed.TimeInterval = schema.IntervalYear
		}
	}

	if at := strings.Index(parsed.Logical, "@"); at >= 0 {
		role := schema.DatabaseType(parsed.Logical[at+1:])
		parsed.Logical = parsed.Logical[:at]
		if role.Valid() {
			parsed.DatabaseType = role
		}
	}

	return parsed
}

// shardPattern builds a regexp matching physical shard names of a declared
// logical table, or nil when the table does not shard.
func shardPattern(entry *schema.TableSchema) *regexp.Regexp {
	base := regexp.QuoteMeta(entry.TableName)
	switch entry.PartitionType {
	case schema.PartitionStore:
		return regexp.MustCompile(`^` + base + `_[0-9A-Za-z]+$`)
	case schema.PartitionTime:
		format := entry.TimeFormat
		if format == "" {
			format = shard.DefaultFormat(entry.TimeInterval)
		}
		suffix := regexp.QuoteMeta(format)
		suffix = strings.ReplaceAll(suffix, "YYYY", `\d{4}`)
		suffix = strings.ReplaceAll(suffix, "MM", `\d{2}`)
		suffix = strings.ReplaceAll(suffix, "DD", `\d{2}`)
		return regexp.MustCompile(`^` + base + suffix + `$`)
	}
	return nil
}
