package menu

import (
	"regexp"
	"sort"
	"strings"
)

// searchIndex is the keyword index built at load time (and rebuilt on every
// availability toggle so it never drifts from the item set it describes).
type searchIndex struct {
	keywords map[string][]string // keyword -> lower-cased item names
}

// keywordPattern matches runs of Hangul syllables, ASCII letters, or digits
// — the alphanumeric/CJK tokenizer spec §4.1 calls for.
var keywordPattern = regexp.MustCompile(`[\x{AC00}-\x{D7A3}a-z0-9]+`)

// extractKeywords tokenizes text into words of at least two characters plus
// every adjacent 2-gram within each word longer than two characters,
// mirroring the original menu search's keyword extraction exactly.
func extractKeywords(text string) map[string]bool {
	keywords := make(map[string]bool)
	words := keywordPattern.FindAllString(strings.ToLower(text), -1)
	for _, word := range words {
		runes := []rune(word)
		if len(runes) < 2 {
			continue
		}
		keywords[word] = true
		if len(runes) > 2 {
			for i := 0; i < len(runes)-1; i++ {
				keywords[string(runes[i:i+2])] = true
			}
		}
	}
	return keywords
}

// buildSearchIndex indexes every item's name and description.
func buildSearchIndex(items map[string]Item) *searchIndex {
	idx := &searchIndex{keywords: make(map[string][]string)}
	for key, it := range items {
		for kw := range extractKeywords(it.Name + " " + it.Description) {
			idx.keywords[kw] = append(idx.keywords[kw], key)
		}
	}
	return idx
}

// Search implements spec §4.1's three-phase search: exact-name lookup,
// then keyword-index lookup, then a substring scan over names. An exact
// name hit is returned on its own, without running the later phases.
// Otherwise results are de-duplicated and ordered by (category, name);
// limit is applied last.
func (c *Catalog) Search(query, category string, availableOnly bool, limit int) (items []Item, total int) {
	snap := c.current()
	q := strings.ToLower(strings.TrimSpace(query))

	matched := make(map[string]Item)
	include := func(key string) {
		it, ok := snap.items[key]
		if !ok {
			return
		}
		if availableOnly && !it.Available {
			return
		}
		if category != "" && it.Category != category {
			return
		}
		matched[key] = it
	}

	// Phase 1: exact name match.
	include(q)
	if it, ok := matched[q]; ok {
		return []Item{it}, 1
	}

	// Phase 2: keyword index.
	for kw := range extractKeywords(q) {
		for _, key := range snap.index.keywords[kw] {
			include(key)
		}
	}

	// Phase 3: substring scan over names.
	if q != "" {
		for key := range snap.items {
			if strings.Contains(key, q) {
				include(key)
			}
		}
	}

	result := make([]Item, 0, len(matched))
	for _, it := range matched {
		result = append(result, it)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Category != result[j].Category {
			return result[i].Category < result[j].Category
		}
		return result[i].Name < result[j].Name
	})

	total = len(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, total
}
