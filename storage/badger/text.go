package badger

import "strings"

// Stop words excluded from the keyword index and from queries
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// analyze splits text into terms, lowercases, trims punctuation, and
// removes stop words. Index and query sides must use the same analysis.
func analyze(text string) []string {
	words := strings.Fields(text)
	terms := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			terms = append(terms, cleaned)
		}
	}

	return terms
}

// termFrequencies counts occurrences per term.
func termFrequencies(terms []string) map[string]int {
	freq := make(map[string]int, len(terms))
	for _, term := range terms {
		freq[term]++
	}
	return freq
}

// uniqueTerms deduplicates query terms, preserving first-seen order.
func uniqueTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	unique := make([]string, 0, len(terms))
	for _, term := range terms {
		if !seen[term] {
			seen[term] = true
			unique = append(unique, term)
		}
	}
	return unique
}
