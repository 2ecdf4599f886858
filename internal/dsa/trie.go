// Package dsa provides the prefix index behind interactive completion.
package dsa

import (
	"github.com/armon/go-radix"
)

// Trie is a radix tree keyed by string.
type Trie[V any] struct {
	tree *radix.Tree
}

// NewTrie creates an empty tree.
func NewTrie[V any]() *Trie[V] {
	return &Trie[V]{tree: radix.New()}
}

// Insert adds or replaces a key.
func (t *Trie[V]) Insert(key string, value V) {
	t.tree.Insert(key, value)
}

// Search looks up a key.
func (t *Trie[V]) Search(key string) (V, bool) {
	val, found := t.tree.Get(key)
	if !found {
		var zero V
		return zero, false
	}
	v, ok := val.(V)
	return v, ok
}

// Delete removes a key and reports whether it was present.
func (t *Trie[V]) Delete(key string) bool {
	_, deleted := t.tree.Delete(key)
	return deleted
}

// StartsWith returns the keys with the given prefix in lexical order.
func (t *Trie[V]) StartsWith(prefix string) []string {
	var results []string
	t.tree.WalkPrefix(prefix, func(k string, _ interface{}) bool {
		results = append(results, k)
		return false
	})
	return results
}

// Size returns the number of keys.
func (t *Trie[V]) Size() int {
	return t.tree.Len()
}
