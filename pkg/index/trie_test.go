package index

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrieInsertLookup(t *testing.T) {
	trie := NewTrie()
	trie.Insert("chennai", 1)
	trie.Insert("chai", 2)
	trie.Insert("darbar", 2)

	testCases := []struct {
		prefix string
		want   []uint32
		found  bool
	}{
		{"c", []uint32{1, 2}, true},
		{"ch", []uint32{1, 2}, true},
		{"che", []uint32{1}, true},
		{"chennai", []uint32{1}, true},
		{"cha", []uint32{2}, true},
		{"d", []uint32{2}, true},
		{"chennais", nil, false},
		{"x", nil, false},
	}

	for _, tc := range testCases {
		t.Run(tc.prefix, func(t *testing.T) {
			ids, ok := trie.Lookup(tc.prefix)
			require.Equal(t, tc.found, ok)
			if !tc.found {
				assert.Nil(t, ids)
				return
			}
			assert.Equal(t, tc.want, ids.ToArray())
		})
	}
}

func TestTrieEmptyPrefix(t *testing.T) {
	trie := NewTrie()
	trie.Insert("", 7)
	trie.Insert("a", 1)

	ids, ok := trie.Lookup("")
	require.True(t, ok)
	assert.True(t, ids.IsEmpty(), "root never holds ids")
	assert.Equal(t, 1, trie.Len())
}

func TestTrieRemoveKeepsSharedNodes(t *testing.T) {
	trie := NewTrie()
	trie.Insert("foo", 1)
	trie.Insert("food", 2)

	require.NoError(t, trie.Remove("food", 2))

	ids, ok := trie.Lookup("foo")
	require.True(t, ok)
	assert.Equal(t, []uint32{1}, ids.ToArray())

	ids, ok = trie.Lookup("food")
	require.True(t, ok, "nodes are retained after removal")
	assert.True(t, ids.IsEmpty())
	assert.Equal(t, 4, trie.Len())
}

func TestTrieRemoveMissingPath(t *testing.T) {
	trie := NewTrie()
	trie.Insert("foo", 1)

	err := trie.Remove("bar", 1)
	assert.ErrorIs(t, err, ErrNoPath)

	err = trie.Remove("fool", 1)
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestTrieRemoveSharedPrefixTokens(t *testing.T) {
	// one record with two tokens sharing "chen"
	trie := NewTrie()
	trie.Insert("chen", 3)
	trie.Insert("chennai", 3)
	trie.Insert("chess", 4)

	require.NoError(t, trie.Remove("chen", 3))
	require.NoError(t, trie.Remove("chennai", 3))

	trie.Walk(func(prefix string, ids *roaring.Bitmap) bool {
		assert.False(t, ids.Contains(3), "ordinal 3 left at %q", prefix)
		return true
	})
	ids, ok := trie.Lookup("che")
	require.True(t, ok)
	assert.Equal(t, []uint32{4}, ids.ToArray())
}

func TestTrieCompact(t *testing.T) {
	trie := NewTrie()
	trie.Insert("foo", 1)
	trie.Insert("food", 2)
	trie.Insert("bar", 3)
	require.NoError(t, trie.Remove("food", 2))
	require.NoError(t, trie.Remove("bar", 3))

	pruned := trie.Compact()
	assert.Equal(t, 4, pruned)
	assert.Equal(t, 3, trie.Len())

	_, ok := trie.Lookup("food")
	assert.False(t, ok)
	_, ok = trie.Lookup("b")
	assert.False(t, ok)
	ids, ok := trie.Lookup("fo")
	require.True(t, ok)
	assert.Equal(t, []uint32{1}, ids.ToArray())
}

func TestTrieString(t *testing.T) {
	trie := NewTrie()
	trie.Insert("ab", 1)
	trie.Insert("b", 2)
	trie.Insert("ac", 2)

	assert.Equal(t, "a(2) b(1) ab(1) ac(1)", trie.String())
}
