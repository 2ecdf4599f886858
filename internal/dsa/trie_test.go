package dsa

import "testing"

func TestTrieInsertSearchDelete(t *testing.T) {
	trie := NewTrie[int]()
	trie.Insert("remote", 1)
	trie.Insert("remove", 2)
	trie.Insert("remote", 3)

	if trie.Size() != 2 {
		t.Fatalf("expected 2 keys, got %d", trie.Size())
	}
	if v, ok := trie.Search("remote"); !ok || v != 3 {
		t.Errorf("expected replaced value 3, got %d (found=%v)", v, ok)
	}
	if _, ok := trie.Search("rem"); ok {
		t.Error("prefix must not match as a key")
	}
	if !trie.Delete("remove") || trie.Delete("remove") {
		t.Error("expected exactly one successful delete")
	}
	if trie.Size() != 1 {
		t.Errorf("expected 1 key after delete, got %d", trie.Size())
	}
}

func TestTrieStartsWith(t *testing.T) {
	trie := NewTrie[struct{}]()
	for _, k := range []string{"view", "validate", "sort", "v"} {
		trie.Insert(k, struct{}{})
	}

	got := trie.StartsWith("v")
	want := []string{"v", "validate", "view"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
	if got := trie.StartsWith("x"); len(got) != 0 {
		t.Errorf("expected no keys, got %v", got)
	}
}
