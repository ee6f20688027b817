// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"os"
	"time"

	"github.com/pdiddy/biblio-engine/pkg/types"
)

// Stat reports whether a cache file exists and, if so, when it was last
// modified. Errors other than absence are surfaced so callers can tell a
// missing file from an unreadable one.
func Stat(path string) (exists bool, modTime time.Time, err error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, time.Time{}, nil
		}
		return false, time.Time{}, err
	}
	return true, info.ModTime(), nil
}

// AgeDays returns the whole days elapsed since modTime, truncated toward
// zero. A file modified earlier today has age 0.
func AgeDays(modTime, now time.Time) int {
	return int(now.Sub(modTime) / (24 * time.Hour))
}

// ShouldRefresh decides whether a cached file must be refetched under the
// given policy (R2.1).
//
// A missing file always refreshes. A boolean policy is applied verbatim.
// A numeric policy compares its day budget against the file age counted
// inclusively: a file written seconds ago is already on its first day, so
// a budget of zero days refreshes immediately (R2.2). Downstream cache
// behavior depends on the inclusive count, so keep it.
func ShouldRefresh(policy types.RefreshPolicy, exists bool, modTime, now time.Time) bool {
	if !exists {
		return true
	}
	if maxAge, ok := policy.MaxAgeDays(); ok {
		return maxAge < AgeDays(modTime, now)+1
	}
	return policy.Always()
}
