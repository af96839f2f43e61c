// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

// Package version implements ordering and bumping of the MAJOR.MINOR.PATCH
// schema version strings stored in the catalog.
package version

import (
	"strconv"
	"strings"

	"github.com/zeebo/errs"
	"golang.org/x/mod/semver"
)

// Error is the default error class for the version package.
var Error = errs.Class("version")

// IsValid reports whether v is a usable schema version.
// Missing minor or patch components are tolerated and treated as zero.
func IsValid(v string) bool {
	return semver.IsValid(prefixed(v))
}

// Compare returns -1, 0, or +1 depending on whether a is smaller, equal, or
// larger than b. Components compare numerically, so 1.2.19 > 1.2.9.
func Compare(a, b string) int {
	return semver.Compare(prefixed(a), prefixed(b))
}

// IsNewer reports whether a is strictly greater than b.
func IsNewer(a, b string) bool { return Compare(a, b) > 0 }

// Canonical normalizes v to a full MAJOR.MINOR.PATCH triplet.
func Canonical(v string) (string, error) {
	c := semver.Canonical(prefixed(v))
	if c == "" {
		return "", Error.New("invalid version %q", v)
	}
	return strings.TrimPrefix(c, "v"), nil
}

// NextPatch returns v with the patch component incremented. It returns an
// error when v is not a valid version; callers decide the fallback.
func NextPatch(v string) (string, error) {
	c, err := Canonical(v)
	if err != nil {
		return "", err
	}
	parts := strings.SplitN(c, ".", 3)
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", Error.Wrap(err)
	}
	return parts[0] + "." + parts[1] + "." + strconv.Itoa(patch+1), nil
}

func prefixed(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
