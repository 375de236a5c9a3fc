package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/mikey/trie-spam-filter/internal/trie"
	"github.com/stretchr/testify/assert"
)

func TestDefaultDictionary(t *testing.T) {
	dict := NewDefaultDictionary()

	assert.Equal(t, len(IndicatorTerms), dict.Len())
	for _, term := range IndicatorTerms {
		assert.Equal(t, trie.Match{Found: true, Score: DefaultBaseScore}, dict.Search(term), term)
	}
	assert.Equal(t, IndicatorTerms, dict.SeedTerms())
	assert.False(t, dict.Snapshot().Terminal)
}

func TestDictionaryInsertOverwrites(t *testing.T) {
	dict := NewDefaultDictionary()
	dict.Insert("Free", 2)

	assert.Equal(t, trie.Match{Found: true, Score: 2}, dict.Search("FREE"))
	assert.Equal(t, len(IndicatorTerms), dict.Len())
}

func TestDictionaryConcurrentAccess(t *testing.T) {
	dict := NewDefaultDictionary()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				dict.Insert(fmt.Sprintf("term%d_%d", i, j), 1)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				AnalyzeText(dict, "urgent: verify your account")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, len(IndicatorTerms)+800, dict.Len())
	assert.True(t, dict.Search("term7_99").Found)
}
