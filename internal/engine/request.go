// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/pdiddy/biblio-engine/internal/cache"
	"github.com/pdiddy/biblio-engine/internal/fetch"
	"github.com/pdiddy/biblio-engine/pkg/types"
)

// Kind distinguishes the two request shapes. Searches return a paginated
// entry list; retrievals return exactly one document.
type Kind string

const (
	KindSearch    Kind = "search"
	KindRetrieval Kind = "retrieval"
)

// Request describes one cached API call. URL is the complete request URL
// and Key addresses the cache slot; both are normally built by a domain
// wrapper rather than by hand.
//
// Download applies to searches only: when false the engine stops after
// learning the match count and persists nothing. Retrievals always
// download.
type Request struct {
	API      string
	URL      string
	Kind     Kind
	Params   url.Values
	Key      cache.Key
	Refresh  types.RefreshPolicy
	Download bool
}

// Record is the outcome of resolving a Request: the entries, where they
// came from, and the rate-limit quota observed on the wire (absent for
// cache hits).
type Record struct {
	Entries   []json.RawMessage
	Total     int
	FromCache bool
	Path      string
	ModTime   time.Time

	quota    fetch.Quota
	hasQuota bool
}

// Doc returns the single document of a retrieval record, or nil when the
// record holds no entries.
func (r *Record) Doc() json.RawMessage {
	if len(r.Entries) == 0 {
		return nil
	}
	return r.Entries[0]
}

// CacheAge returns the age of the backing cache file in whole days.
func (r *Record) CacheAge() int {
	return cache.AgeDays(r.ModTime, time.Now())
}

// CacheModifiedAt returns the cache file's modification time formatted in
// local time, e.g. "2026-05-01 09:30:00".
func (r *Record) CacheModifiedAt() string {
	return r.ModTime.Local().Format("2006-01-02 15:04:05")
}

// QuotaRemaining reports the remaining request quota from the last page
// of this resolve. ok is false when the record was served from cache.
func (r *Record) QuotaRemaining() (int, bool) {
	if !r.hasQuota {
		return 0, false
	}
	return r.quota.Remaining, true
}

// QuotaResetAt reports when the key's quota window resets. ok is false
// when the record was served from cache or the provider omitted the
// header.
func (r *Record) QuotaResetAt() (time.Time, bool) {
	if !r.hasQuota || r.quota.ResetAt.IsZero() {
		return time.Time{}, false
	}
	return r.quota.ResetAt, true
}

// QueryTooLargeError reports a search whose match count exceeds what the
// offset-paginated interface can return.
type QueryTooLargeError struct {
	Found int
	Limit int
}

func (e *QueryTooLargeError) Error() string {
	return fmt.Sprintf("found %d matches but the query interface returns at most %d entries; narrow the query",
		e.Found, e.Limit)
}
