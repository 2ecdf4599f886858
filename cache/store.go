package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Entry is one stored extraction result. Entries are never updated; storing
// the same fingerprint again appends a newer entry.
type Entry struct {
	ID              string
	Fingerprint     string
	ToolPath        string
	CommandPath     []string
	HelpDigest      string
	ContractVersion string
	ModelID         string
	Payload         json.RawMessage
	CreatedAt       time.Time
}

// Store persists entries keyed by fingerprint.
type Store interface {
	// Lookup returns the newest entry for fingerprint.
	Lookup(ctx context.Context, fingerprint string) (Entry, bool, error)

	// Put appends an entry. Each Put is atomic on its own.
	Put(ctx context.Context, entry Entry) error

	// List returns entries for a tool (matched by path or base name), newest
	// first. An empty tool lists everything.
	List(ctx context.Context, tool string) ([]Entry, error)

	Close() error
}

// CacheError reports a store failure. It is never fatal: lookups degrade to
// misses and stores to no-ops.
type CacheError struct {
	Op          string
	Fingerprint string
	Err         error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, shortFingerprint(e.Fingerprint), e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// IsCacheError reports whether err is a CacheError.
func IsCacheError(err error) bool {
	var cacheErr *CacheError
	return errors.As(err, &cacheErr)
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
