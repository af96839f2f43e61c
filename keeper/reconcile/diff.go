// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package reconcile

import (
	"strings"

	"github.com/qcplatform/schemad/keeper/inspect"
	"github.com/qcplatform/schemad/keeper/schema"
)

// columnChanged reports whether the live column drifted from the target
// definition under the comparison normalization rules.
func columnChanged(target *schema.Column, live *inspect.Column) bool {
	targetBase := BaseType(target.Type)

	if targetBase != BaseType(live.DataType) {
		return true
	}

	if target.Nullable() != live.Nullable {
		return true
	}

	if defaultChanged(target, live) {
		return true
	}

	if strings.TrimSpace(target.Comment) != strings.TrimSpace(live.Comment) {
		return true
	}

	if targetBase == "ENUM" || targetBase == "SET" {
		if !equalStrings(target.Values, live.EnumValues()) {
			return true
		}
	}

	if decimalTypes[targetBase] && target.Precision > 0 {
		if int64(target.Precision) != live.Precision || int64(target.Scale) != live.Scale {
			return true
		}
	}

	return false
}

// defaultChanged compares defaults. An unspecified target default infers no
// change; the timestamp sentinels compare against the live default plus the
// on-update extra flag.
func defaultChanged(target *schema.Column, live *inspect.Column) bool {
	if target.DefaultValue == nil {
		return false
	}
	want := strings.TrimSpace(*target.DefaultValue)

	switch strings.ToUpper(want) {
	case schema.DefaultCurrentTimestamp:
		return !liveDefaultIsCurrentTimestamp(live)
	case schema.DefaultCurrentTimestampOnUpdate:
		return !liveDefaultIsCurrentTimestamp(live) ||
			!strings.Contains(strings.ToLower(live.Extra), "on update")
	}

	if live.Default == nil {
		return want != ""
	}
	return want != strings.TrimSpace(*live.Default)
}

// liveDefaultIsCurrentTimestamp tolerates the server's spelling variants,
// e.g. current_timestamp() on MariaDB.
func liveDefaultIsCurrentTimestamp(live *inspect.Column) bool {
	if live.Default == nil {
		return false
	}
	normalized := strings.ToUpper(strings.TrimSuffix(strings.TrimSpace(*live.Default), "()"))
	return normalized == schema.DefaultCurrentTimestamp
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
