package index

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrNoPath is returned when removing a token whose path was never inserted.
// It signals a broken index invariant, not a missing record.
var ErrNoPath = errors.New("token path not in trie")

// node is one prefix in the trie. ids holds the ordinals of every live record
// with a token passing through this node.
type node struct {
	children map[rune]*node
	ids      *roaring.Bitmap
}

func newNode() *node {
	return &node{
		children: make(map[rune]*node),
		ids:      roaring.New(),
	}
}

// Trie is a character level prefix tree over lowercase tokens.
// It is not safe for concurrent use; Index guards it.
type Trie struct {
	root  *node
	nodes int
}

// NewTrie returns an empty trie holding only the root (empty prefix).
func NewTrie() *Trie {
	return &Trie{root: newNode()}
}

// Insert links ord to every prefix of token, creating nodes as needed.
// An empty token is a no-op.
func (t *Trie) Insert(token string, ord uint32) {
	curr := t.root
	for _, r := range token {
		next, ok := curr.children[r]
		if !ok {
			next = newNode()
			curr.children[r] = next
			t.nodes++
		}
		curr = next
		curr.ids.Add(ord)
	}
}

// Lookup returns the candidate set stored at prefix. The bool is false when
// some rune of prefix has no path, which is distinct from an empty set.
// The returned bitmap is owned by the trie and must not be modified.
func (t *Trie) Lookup(prefix string) (*roaring.Bitmap, bool) {
	curr := t.root
	for _, r := range prefix {
		next, ok := curr.children[r]
		if !ok {
			return nil, false
		}
		curr = next
	}
	return curr.ids, true
}

// Remove unlinks ord from every node along token's path. Nodes are kept even
// when they end up empty; see Compact.
func (t *Trie) Remove(token string, ord uint32) error {
	curr := t.root
	for i, r := range token {
		next, ok := curr.children[r]
		if !ok {
			return fmt.Errorf("remove %q at offset %d: %w", token, i, ErrNoPath)
		}
		curr = next
		curr.ids.Remove(ord)
	}
	return nil
}

// Compact prunes nodes that hold no ids and have no children left.
// It returns the number of nodes removed. The root is never pruned.
func (t *Trie) Compact() int {
	pruned := compact(t.root)
	t.nodes -= pruned
	return pruned
}

func compact(n *node) int {
	pruned := 0
	for r, child := range n.children {
		pruned += compact(child)
		if len(child.children) == 0 && child.ids.IsEmpty() {
			delete(n.children, r)
			pruned++
		}
	}
	return pruned
}

// Len reports the number of nodes, not counting the root.
func (t *Trie) Len() int {
	return t.nodes
}

// Walk visits nodes in level order, children sorted by rune. Returning false
// from fn stops the walk.
func (t *Trie) Walk(fn func(prefix string, ids *roaring.Bitmap) bool) {
	type entry struct {
		prefix string
		n      *node
	}
	queue := []entry{{"", t.root}}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		if e.n != t.root && !fn(e.prefix, e.n.ids) {
			return
		}
		keys := make([]rune, 0, len(e.n.children))
		for r := range e.n.children {
			keys = append(keys, r)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		for _, r := range keys {
			queue = append(queue, entry{e.prefix + string(r), e.n.children[r]})
		}
	}
}

// String renders the level order traversal as "prefix(count)" entries.
func (t *Trie) String() string {
	var sb strings.Builder
	t.Walk(func(prefix string, ids *roaring.Bitmap) bool {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s(%d)", prefix, ids.GetCardinality())
		return true
	})
	return sb.String()
}
