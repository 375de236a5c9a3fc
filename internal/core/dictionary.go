package core

import (
	"sync"

	"github.com/mikey/trie-spam-filter/internal/trie"
)

// DefaultBaseScore is the score every bootstrap indicator term starts with
const DefaultBaseScore = 1.0

// IndicatorTerms is the bootstrap list of spam indicator terms
var IndicatorTerms = []string{
	"urgent", "winner", "congratulations", "money", "prize",
	"offer", "free", "deal", "limited", "payment", "cash",
	"credit", "lottery", "investment", "bitcoin", "cryptocurrency",
	"bank", "account", "deposit", "wire", "transfer", "prince",
	"inheritance", "claim", "click", "verify", "password",
	"security", "suspicious", "activity", "login",
	"restricted", "suspension", "unusual", "notification",
}

// WordLookup is the read side of a dictionary
type WordLookup interface {
	Search(word string) trie.Match
}

// Dictionary is a trie of indicator terms that is safe for concurrent use.
// Searches share a read lock; Insert takes the write lock.
type Dictionary struct {
	mu    sync.RWMutex
	trie  *trie.Trie
	terms []string
}

// NewDictionary creates a dictionary seeded with terms, each at baseScore
func NewDictionary(terms []string, baseScore float64) *Dictionary {
	d := &Dictionary{
		trie:  trie.New(),
		terms: append([]string(nil), terms...),
	}
	for _, term := range terms {
		d.trie.Insert(term, baseScore)
	}
	return d
}

// NewDefaultDictionary creates a dictionary seeded with IndicatorTerms
func NewDefaultDictionary() *Dictionary {
	return NewDictionary(IndicatorTerms, DefaultBaseScore)
}

// Insert adds or rescores a term
func (d *Dictionary) Insert(word string, score float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trie.Insert(word, score)
}

// Search looks up a term
func (d *Dictionary) Search(word string) trie.Match {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.trie.Search(word)
}

// Snapshot copies the underlying tree
func (d *Dictionary) Snapshot() *trie.NodeSnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.trie.Snapshot()
}

// Len returns the number of distinct terms
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.trie.Len()
}

// SeedTerms returns the terms the dictionary was created with
func (d *Dictionary) SeedTerms() []string {
	return append([]string(nil), d.terms...)
}
