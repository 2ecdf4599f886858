// Package cache provides the content-addressed store for extraction results.
//
// Information Hiding:
// - Fingerprint encoding and hashing hidden
// - Storage backend (SQLite, memory) hidden behind Store
// - Failure policy (errors degrade to misses) hidden in Cache
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Key is the tuple a fingerprint is derived from.
type Key struct {
	ToolPath        string
	CommandPath     []string
	HelpText        string
	ContractVersion string
	ModelID         string
}

// HelpDigest returns the content hash of a help text.
func HelpDigest(text string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(text))
}

// Fingerprint returns the deterministic hash identifying k. Every field is
// length-prefixed so distinct tuples can never encode to the same bytes.
func Fingerprint(k Key) string {
	h := sha256.New()
	writeField(h, "tool", k.ToolPath)
	writeField(h, "depth", strconv.Itoa(len(k.CommandPath)))
	for _, seg := range k.CommandPath {
		writeField(h, "seg", seg)
	}
	writeField(h, "help", HelpDigest(k.HelpText))
	writeField(h, "contract", k.ContractVersion)
	writeField(h, "model", k.ModelID)
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h hash.Hash, name, value string) {
	fmt.Fprintf(h, "%s:%d:%s\n", name, len(value), value)
}
