package main

import (
	"context"
	"sync/atomic"

	"github.com/mattermost/mattermost/server/public/plugin"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/fmartingr/mattermost-plugin-wallabag/server/wallabag"
)

// EntrySaver is the part of the Wallabag client the processor needs.
type EntrySaver interface {
	SaveEntry(ctx context.Context, rawURL string) (*wallabag.Entry, error)
}

// Replier delivers feedback for a processed URL into the post's thread.
type Replier interface {
	ReplyEntry(postID string, entry *wallabag.Entry) error
	ReplyError(postID, url string, err error) error
}

// errAlreadySaved is returned by the in-flight group when another caller won
// the race and the URL landed in the cache meanwhile.
var errAlreadySaved = errors.New("url already saved")

// SaveProcessor orchestrates the save workflow for posted URLs: extract,
// skip known ones, save to Wallabag, reply in-thread, persist the cache once
// per message. Identical URLs saved concurrently collapse into a single API
// call through the in-flight group.
type SaveProcessor struct {
	api       plugin.API
	extractor *URLExtractor
	cache     *SavedURLCache
	replier   Replier

	// saverFn returns the current client, or nil while the configuration is
	// incomplete. Indirection because the client is rebuilt on config change.
	saverFn func() EntrySaver

	inflight     singleflight.Group
	configWarned atomic.Bool
}

// NewSaveProcessor creates a new save processor
func NewSaveProcessor(api plugin.API, extractor *URLExtractor, cache *SavedURLCache, replier Replier, saverFn func() EntrySaver) *SaveProcessor {
	return &SaveProcessor{
		api:       api,
		extractor: extractor,
		cache:     cache,
		replier:   replier,
		saverFn:   saverFn,
	}
}

// ResetConfigWarning re-arms the one-shot "not configured" log line after a
// configuration change.
func (p *SaveProcessor) ResetConfigWarning() {
	p.configWarned.Store(false)
}

// ProcessPost auto-saves every previously unseen URL in the message, replying
// in the post's thread per URL. The cache is persisted at most once per
// message, after all URLs are handled.
func (p *SaveProcessor) ProcessPost(ctx context.Context, postID, message string) {
	urls := p.extractor.Extract(message)
	if len(urls) == 0 {
		return
	}

	if p.saverFn() == nil {
		if p.configWarned.CompareAndSwap(false, true) {
			p.api.LogWarn("Wallabag configuration is incomplete, skipping auto-save")
		}
		return
	}

	changed := false
	for _, u := range urls {
		if p.cache.Contains(u) {
			p.api.LogDebug("URL already saved, skipping", "url", u)
			continue
		}

		entry, err := p.SaveURL(ctx, u)
		switch {
		case errors.Is(err, errAlreadySaved):
			p.api.LogDebug("URL saved by a concurrent request, skipping", "url", u)
		case err != nil:
			p.api.LogError("Failed to save URL", "url", u, "postID", postID, "error", err.Error())
			if replyErr := p.replier.ReplyError(postID, u, err); replyErr != nil {
				p.api.LogError("Failed to create error thread reply", "url", u, "error", replyErr.Error())
			}
		default:
			changed = true
			p.api.LogInfo("Saved URL to Wallabag", "url", u, "postID", postID, "entryID", entry.ID)
			if replyErr := p.replier.ReplyEntry(postID, entry); replyErr != nil {
				p.api.LogError("Failed to create confirmation thread reply", "url", u, "error", replyErr.Error())
			}
		}
	}

	if changed {
		p.cache.Flush()
	}
}

// SaveURL saves a single URL, deduplicating concurrent saves of the same
// (normalized) URL: only one create-entry call reaches the API, the rest
// share its result. On success the URL is added to the cache but not flushed;
// the caller decides the persistence checkpoint.
func (p *SaveProcessor) SaveURL(ctx context.Context, rawURL string) (*wallabag.Entry, error) {
	v, err, _ := p.inflight.Do(normalizeURL(rawURL), func() (interface{}, error) {
		if p.cache.Contains(rawURL) {
			return nil, errAlreadySaved
		}

		saver := p.saverFn()
		if saver == nil {
			return nil, wallabag.ErrConfigIncomplete
		}

		entry, err := saver.SaveEntry(ctx, rawURL)
		if err != nil {
			return nil, err
		}

		p.cache.Add(rawURL)
		return entry, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*wallabag.Entry), nil
}
