// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidRefreshPolicy is returned when a refresh value is neither a
// boolean nor a non-negative number of days.
var ErrInvalidRefreshPolicy = errors.New("refresh must be a boolean or a non-negative number of days")

// RefreshPolicy decides whether an existing cached response may be reused.
// A policy is either unconditional (always or never refetch while a cache
// file exists) or age-based (refetch once the file is older than a maximum
// number of days). The zero value never refetches.
// Per prd001-cache-engine R2.1-R2.3.
type RefreshPolicy struct {
	always bool
	maxAge int
	aged   bool
}

// RefreshNever reuses an existing cache file regardless of its age.
func RefreshNever() RefreshPolicy { return RefreshPolicy{} }

// RefreshAlways refetches even when a cache file exists.
func RefreshAlways() RefreshPolicy { return RefreshPolicy{always: true} }

// RefreshMaxAge refetches once the cache file is older than days.
func RefreshMaxAge(days int) RefreshPolicy {
	return RefreshPolicy{maxAge: days, aged: true}
}

// Always reports whether the policy unconditionally refetches.
func (p RefreshPolicy) Always() bool { return !p.aged && p.always }

// MaxAgeDays returns the age limit in days and whether the policy is
// age-based at all.
func (p RefreshPolicy) MaxAgeDays() (int, bool) { return p.maxAge, p.aged }

// String renders the policy for logs and error messages.
func (p RefreshPolicy) String() string {
	if p.aged {
		return fmt.Sprintf("%dd", p.maxAge)
	}
	if p.always {
		return "always"
	}
	return "never"
}

// ParseRefreshPolicy converts a CLI or config value into a RefreshPolicy.
// Numbers are tried first so that "1" means one day, not true: "30" becomes
// an age limit of 30 days, "true"/"false" become the unconditional policies.
// Anything else fails with ErrInvalidRefreshPolicy.
func ParseRefreshPolicy(s string) (RefreshPolicy, error) {
	if days, err := strconv.Atoi(s); err == nil {
		if days < 0 {
			return RefreshPolicy{}, fmt.Errorf("%w: got %q", ErrInvalidRefreshPolicy, s)
		}
		return RefreshMaxAge(days), nil
	}
	if b, err := strconv.ParseBool(s); err == nil {
		if b {
			return RefreshAlways(), nil
		}
		return RefreshNever(), nil
	}
	return RefreshPolicy{}, fmt.Errorf("%w: got %q", ErrInvalidRefreshPolicy, s)
}
