// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"net/http"
	"strconv"
	"time"
)

// Rate-limit headers returned by the provider on every response.
const (
	headerQuotaRemaining = "X-RateLimit-Remaining"
	headerQuotaReset     = "X-RateLimit-Reset"
)

// Quota is the key-level rate-limit snapshot carried in response headers:
// how many requests remain in the current window and when the window
// resets.
type Quota struct {
	Remaining int
	ResetAt   time.Time
}

// ParseQuota extracts the quota snapshot from response headers. ok is
// false when the remaining-count header is absent or unparsable, which is
// the case for error pages served outside the API gateway.
func ParseQuota(h http.Header) (Quota, bool) {
	rem := h.Get(headerQuotaRemaining)
	if rem == "" {
		return Quota{}, false
	}
	remaining, err := strconv.Atoi(rem)
	if err != nil {
		return Quota{}, false
	}

	q := Quota{Remaining: remaining}
	if reset := h.Get(headerQuotaReset); reset != "" {
		if epoch, err := strconv.ParseInt(reset, 10, 64); err == nil {
			q.ResetAt = time.Unix(epoch, 0)
		}
	}
	return q, true
}
