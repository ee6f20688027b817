// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine resolves API requests against the local response cache,
// paging through remote results when the cache is missing or stale.
// Implements: prd001-cache-engine (R3-R7);
//
//	docs/ARCHITECTURE § Engine.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/biblio-engine/internal/cache"
	"github.com/pdiddy/biblio-engine/internal/fetch"
	"github.com/pdiddy/biblio-engine/internal/journal"
	"github.com/pdiddy/biblio-engine/pkg/types"
)

const (
	// defaultPageSize applies when a search omits the count parameter.
	defaultPageSize = 25
	// defaultMaxEntries caps offset-paginated searches; the provider
	// refuses to serve deeper result windows.
	defaultMaxEntries = 5000
)

// state names one step of the resolve loop. Every request walks
// checkCache and then either serves the cache or downloads, sizes, and
// persists.
type state int

const (
	stateCheckCache state = iota
	stateServeCache
	stateFetchFirst
	stateSizeCheck
	stateDownloadRest
	statePersist
	stateDone
)

// Engine coordinates cache lookups and remote downloads. Safe for
// concurrent use; each Fetch call runs independently and only the
// latest-quota snapshot is shared.
type Engine struct {
	client     *fetch.Client
	locator    *cache.Locator
	journal    *journal.Journal
	maxEntries int
	log        *logrus.Entry

	mu        sync.Mutex
	lastQuota fetch.Quota
	hasQuota  bool
}

// New builds an Engine. jrnl may be nil to skip request journaling.
func New(client *fetch.Client, locator *cache.Locator, jrnl *journal.Journal, cfg types.RequestsConfig) *Engine {
	maxEntries := cfg.MaxSearchEntries
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Engine{
		client:     client,
		locator:    locator,
		journal:    jrnl,
		maxEntries: maxEntries,
		log:        logrus.WithField("component", "engine"),
	}
}

// run carries the mutable state of one Fetch call between steps.
type run struct {
	req       Request
	params    url.Values
	w         io.Writer
	startedAt time.Time

	path    string
	exists  bool
	modTime time.Time

	cursorMode bool
	total      int
	entries    []json.RawMessage
	nextCursor string
	pages      int
	quota      fetch.Quota
	hasQuota   bool

	record *Record
}

// Fetch resolves one request and returns its Record. Searches that
// exceed the entry ceiling fail with *QueryTooLargeError before any
// follow-up page is requested. Progress lines for multi-page downloads
// go to w; pass nil to suppress them.
func (e *Engine) Fetch(ctx context.Context, req Request, w io.Writer) (*Record, error) {
	if w == nil {
		w = io.Discard
	}
	if req.Kind != KindSearch && req.Kind != KindRetrieval {
		return nil, fmt.Errorf("request kind %q is neither search nor retrieval", req.Kind)
	}

	r := &run{
		req:       req,
		params:    cloneValues(req.Params),
		w:         w,
		startedAt: time.Now(),
		path:      e.locator.Resolve(req.Key),
	}
	r.cursorMode = r.params.Has("cursor")

	st := stateCheckCache
	var err error
	for st != stateDone && err == nil {
		switch st {
		case stateCheckCache:
			st, err = e.checkCache(r)
		case stateServeCache:
			st, err = e.serveCache(r)
		case stateFetchFirst:
			st, err = e.fetchFirst(ctx, r)
		case stateSizeCheck:
			st, err = e.sizeCheck(r)
		case stateDownloadRest:
			st, err = e.downloadRest(ctx, r)
		case statePersist:
			st, err = e.persist(r)
		}
	}

	e.noteQuota(r)
	e.journalRun(r, err)
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"api":        req.API,
		"from_cache": r.record.FromCache,
		"pages":      r.pages,
		"entries":    len(r.record.Entries),
	}).Debug("request resolved")
	return r.record, nil
}

func (e *Engine) checkCache(r *run) (state, error) {
	exists, modTime, err := cache.Stat(r.path)
	if err != nil {
		return stateDone, fmt.Errorf("checking cache file %s: %w", r.path, err)
	}
	r.exists, r.modTime = exists, modTime
	if cache.ShouldRefresh(r.req.Refresh, exists, modTime, time.Now()) {
		return stateFetchFirst, nil
	}
	return stateServeCache, nil
}

func (e *Engine) serveCache(r *run) (state, error) {
	if r.req.Kind == KindSearch {
		entries, err := cache.ReadSearch(r.path)
		if err != nil {
			if errors.Is(err, cache.ErrMalformed) {
				e.log.WithField("path", r.path).Warn("cache file unreadable, refetching")
				return stateFetchFirst, nil
			}
			return stateDone, err
		}
		r.record = &Record{
			Entries:   entries,
			Total:     len(entries),
			FromCache: true,
			Path:      r.path,
			ModTime:   r.modTime,
		}
		return stateDone, nil
	}

	doc, err := cache.ReadRetrieval(r.path)
	if err != nil {
		if errors.Is(err, cache.ErrMalformed) {
			e.log.WithField("path", r.path).Warn("cache file unreadable, refetching")
			return stateFetchFirst, nil
		}
		return stateDone, err
	}
	r.record = &Record{
		Entries:   []json.RawMessage{doc},
		Total:     1,
		FromCache: true,
		Path:      r.path,
		ModTime:   r.modTime,
	}
	return stateDone, nil
}

func (e *Engine) fetchFirst(ctx context.Context, r *run) (state, error) {
	resp, err := e.client.Get(ctx, r.req.URL, r.req.API, r.params)
	if err != nil {
		return stateDone, err
	}
	r.pages++
	r.noteHeader(resp)

	if r.req.Kind == KindRetrieval {
		doc := json.RawMessage(bytes.TrimSpace(resp.Body))
		if len(doc) == 0 || !json.Valid(doc) {
			return stateDone, fmt.Errorf("parsing %s response: not a JSON document", r.req.API)
		}
		r.entries = []json.RawMessage{doc}
		r.total = 1
		return statePersist, nil
	}

	env, err := parseEnvelope(r.req.API, resp.Body)
	if err != nil {
		return stateDone, err
	}
	r.total = env.total()
	r.entries = env.entries()
	r.nextCursor = env.nextCursor()
	return stateSizeCheck, nil
}

// sizeCheck aborts offset-paginated searches whose match count exceeds
// the ceiling. Cursor pagination has no depth limit and is exempt.
func (e *Engine) sizeCheck(r *run) (state, error) {
	if !r.cursorMode && r.total > e.maxEntries {
		return stateDone, &QueryTooLargeError{Found: r.total, Limit: e.maxEntries}
	}
	if !r.req.Download {
		// Count-only resolve: report the size, keep nothing.
		r.record = &Record{
			Total:    r.total,
			Path:     r.path,
			ModTime:  time.Now(),
			quota:    r.quota,
			hasQuota: r.hasQuota,
		}
		return stateDone, nil
	}
	if r.total == 0 {
		r.entries = nil
	}
	return stateDownloadRest, nil
}

func (e *Engine) downloadRest(ctx context.Context, r *run) (state, error) {
	count := defaultPageSize
	if c, err := strconv.Atoi(r.params.Get("count")); err == nil && c > 0 {
		count = c
	}
	start := 0
	if s, err := strconv.Atoi(r.params.Get("start")); err == nil {
		start = s
	}

	chunks := (r.total + count - 1) / count
	if chunks > 1 {
		fmt.Fprintf(r.w, "downloading %d entries in %d pages\n", r.total, chunks)
	}

	for page := 1; page < chunks; page++ {
		if r.cursorMode {
			if r.nextCursor == "" {
				return stateDone, fmt.Errorf("%s page %d carried no next cursor", r.req.API, page)
			}
			r.params.Set("cursor", r.nextCursor)
		} else {
			start += count
			r.params.Set("start", strconv.Itoa(start))
		}

		resp, err := e.client.Get(ctx, r.req.URL, r.req.API, r.params)
		if err != nil {
			return stateDone, err
		}
		r.pages++
		r.noteHeader(resp)

		env, err := parseEnvelope(r.req.API, resp.Body)
		if err != nil {
			return stateDone, err
		}
		r.entries = append(r.entries, env.entries()...)
		r.nextCursor = env.nextCursor()
		fmt.Fprintf(r.w, "  page %d/%d (%d entries)\n", page+1, chunks, len(r.entries))
	}
	return statePersist, nil
}

func (e *Engine) persist(r *run) (state, error) {
	if err := cache.Write(r.path, r.entries); err != nil {
		return stateDone, err
	}
	r.record = &Record{
		Entries:   r.entries,
		Total:     r.total,
		FromCache: false,
		Path:      r.path,
		ModTime:   time.Now(),
		quota:     r.quota,
		hasQuota:  r.hasQuota,
	}
	return stateDone, nil
}

// noteHeader keeps the most recent quota snapshot seen on the wire, so a
// multi-page download reports the final page's remaining quota.
func (r *run) noteHeader(resp *fetch.Response) {
	if q, ok := fetch.ParseQuota(resp.Header); ok {
		r.quota, r.hasQuota = q, true
	}
}

func (e *Engine) noteQuota(r *run) {
	if !r.hasQuota {
		return
	}
	e.mu.Lock()
	e.lastQuota, e.hasQuota = r.quota, true
	e.mu.Unlock()
}

// QuotaRemaining reports the remaining request quota from the most
// recent network response this engine has seen. ok is false before any
// network call in the process.
func (e *Engine) QuotaRemaining() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasQuota {
		return 0, false
	}
	return e.lastQuota.Remaining, true
}

// QuotaResetAt reports when the current key's quota window resets,
// relative to the most recent network response. ok is false before any
// network call.
func (e *Engine) QuotaResetAt() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasQuota || e.lastQuota.ResetAt.IsZero() {
		return time.Time{}, false
	}
	return e.lastQuota.ResetAt, true
}

// journalRun records the outcome of a resolve. Journaling must not fail
// the request, and it uses a fresh context so a canceled fetch still gets
// its failure row.
func (e *Engine) journalRun(r *run, runErr error) {
	status := journal.StatusDownloaded
	detail := ""
	switch {
	case runErr != nil:
		var tooLarge *QueryTooLargeError
		if errors.As(runErr, &tooLarge) {
			status = journal.StatusAborted
		} else {
			status = journal.StatusFailed
		}
		detail = runErr.Error()
	case r.record.FromCache:
		status = journal.StatusCache
	case r.req.Kind == KindSearch && !r.req.Download:
		status = journal.StatusSized
	}

	quota := -1
	if r.hasQuota {
		quota = r.quota.Remaining
	}
	entries := 0
	if r.record != nil {
		entries = len(r.record.Entries)
	}

	err := e.journal.Record(context.Background(), journal.Entry{
		API:            r.req.API,
		Kind:           string(r.req.Kind),
		Identifier:     r.req.Key.ID,
		Pages:          r.pages,
		Entries:        entries,
		Status:         status,
		Detail:         detail,
		QuotaRemaining: quota,
		Duration:       time.Since(r.startedAt),
	})
	if err != nil {
		e.log.WithError(err).Warn("journal write failed")
	}
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
