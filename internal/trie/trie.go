package trie

import (
	"strings"
)

// Node is a single character position in the dictionary tree
type Node struct {
	children map[rune]*Node
	terminal bool
	score    float64
}

func newNode() *Node {
	return &Node{children: make(map[rune]*Node)}
}

// Match is the result of a dictionary lookup
type Match struct {
	Found bool    `json:"found"`
	Score float64 `json:"score"`
}

// Trie is a prefix tree of lowercase indicator terms.
// It does no locking of its own; callers that insert while others search
// must serialize access themselves.
type Trie struct {
	root  *Node
	words int
}

// New creates an empty trie
func New() *Trie {
	return &Trie{root: newNode()}
}

// Insert adds word with the given score, overwriting the score of an
// existing entry. An empty word marks the root itself terminal.
func (t *Trie) Insert(word string, score float64) {
	current := t.root
	for _, char := range strings.ToLower(word) {
		child, ok := current.children[char]
		if !ok {
			child = newNode()
			current.children[char] = child
		}
		current = child
	}

	if !current.terminal {
		t.words++
	}
	current.terminal = true
	current.score = score
}

// Search looks up the exact word. A path that exists only as a prefix of
// a longer term is not a match.
func (t *Trie) Search(word string) Match {
	current := t.root
	for _, char := range strings.ToLower(word) {
		child, ok := current.children[char]
		if !ok {
			return Match{}
		}
		current = child
	}

	if !current.terminal {
		return Match{}
	}
	return Match{Found: true, Score: current.score}
}

// Len returns the number of distinct words stored
func (t *Trie) Len() int {
	return t.words
}
