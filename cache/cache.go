package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/richinex/cmdsaw/model"
)

// Options configures a Cache.
type Options struct {
	// Bust disables lookups while still storing results, forcing a refresh
	// without discarding history.
	Bust   bool
	Logger *log.Logger
}

// Cache maps extraction keys to validated CommandDoc fragments on top of a
// Store. A nil *Cache is valid and behaves as a disabled cache.
type Cache struct {
	store  Store
	bust   bool
	logger *log.Logger
	now    func() time.Time
}

// New creates a cache over store.
func New(store Store, opts Options) *Cache {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Cache{
		store:  store,
		bust:   opts.Bust,
		logger: logger,
		now:    time.Now,
	}
}

// Lookup returns the cached command for key. Store and decode failures are
// logged and reported as a miss together with a *CacheError.
func (c *Cache) Lookup(ctx context.Context, key Key) (model.CommandDoc, model.CacheStatus, error) {
	if c == nil || c.store == nil || c.bust {
		return model.CommandDoc{}, model.CacheBypassed, nil
	}

	fp := Fingerprint(key)
	entry, ok, err := c.store.Lookup(ctx, fp)
	if err != nil {
		cerr := &CacheError{Op: "lookup", Fingerprint: fp, Err: err}
		c.logger.Warn("cache lookup failed", "fingerprint", shortFingerprint(fp), "err", err)
		return model.CommandDoc{}, model.CacheMiss, cerr
	}
	if !ok {
		c.logger.Debug("cache miss", "path", key.CommandPath, "fingerprint", shortFingerprint(fp))
		return model.CommandDoc{}, model.CacheMiss, nil
	}

	var doc model.CommandDoc
	if err := json.Unmarshal(entry.Payload, &doc); err != nil {
		cerr := &CacheError{Op: "decode", Fingerprint: fp, Err: err}
		c.logger.Warn("corrupt cache entry", "fingerprint", shortFingerprint(fp), "err", err)
		return model.CommandDoc{}, model.CacheMiss, cerr
	}
	if doc.Name == "" {
		cerr := &CacheError{Op: "decode", Fingerprint: fp, Err: fmt.Errorf("entry has no command name")}
		c.logger.Warn("corrupt cache entry", "fingerprint", shortFingerprint(fp), "err", cerr.Err)
		return model.CommandDoc{}, model.CacheMiss, cerr
	}

	c.logger.Debug("cache hit", "path", key.CommandPath, "fingerprint", shortFingerprint(fp))
	return doc, model.CacheHit, nil
}

// Store appends doc under key. Children and help text are not stored; an
// entry describes a single node. Failures are logged and returned as a
// *CacheError for the caller to record.
func (c *Cache) Store(ctx context.Context, key Key, doc model.CommandDoc) error {
	if c == nil || c.store == nil {
		return nil
	}

	fp := Fingerprint(key)
	doc = doc.Clone()
	doc.Children = nil
	doc.HelpText = ""
	doc.Kind = ""

	payload, err := json.Marshal(doc)
	if err != nil {
		return &CacheError{Op: "encode", Fingerprint: fp, Err: err}
	}

	err = c.store.Put(ctx, Entry{
		Fingerprint:     fp,
		ToolPath:        key.ToolPath,
		CommandPath:     key.CommandPath,
		HelpDigest:      HelpDigest(key.HelpText),
		ContractVersion: key.ContractVersion,
		ModelID:         key.ModelID,
		Payload:         payload,
		CreatedAt:       c.now(),
	})
	if err != nil {
		c.logger.Warn("cache store failed", "fingerprint", shortFingerprint(fp), "err", err)
		return &CacheError{Op: "store", Fingerprint: fp, Err: err}
	}
	c.logger.Debug("cache store", "path", key.CommandPath, "fingerprint", shortFingerprint(fp))
	return nil
}

// Entries lists stored entries for a tool, newest first.
func (c *Cache) Entries(ctx context.Context, tool string) ([]Entry, error) {
	if c == nil || c.store == nil {
		return nil, nil
	}
	entries, err := c.store.List(ctx, tool)
	if err != nil {
		return nil, &CacheError{Op: "list", Err: err}
	}
	return entries, nil
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.Close()
}
