// Package similarity implements the lexical similarity engine used to score
// candidate companies against the target profile: key-term extraction,
// Jaccard set overlap, and TF-IDF cosine similarity. Everything here is
// pure and deterministic; no I/O.
package similarity

import (
	"strings"
	"unicode"
)

// minWordLen filters short unigrams ("the", "and", "for") out of term sets.
const minWordLen = 4

// ExtractTerms extracts key terms from text: unigrams of at least
// minWordLen characters plus all bigrams and trigrams. Text is lowercased
// and punctuation (except hyphens) is replaced with spaces before splitting.
func ExtractTerms(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	words := tokenize(text)

	for _, w := range words {
		if len(w) >= minWordLen {
			terms[w] = struct{}{}
		}
	}
	for i := 0; i+1 < len(words); i++ {
		terms[words[i]+" "+words[i+1]] = struct{}{}
	}
	for i := 0; i+2 < len(words); i++ {
		terms[words[i]+" "+words[i+1]+" "+words[i+2]] = struct{}{}
	}
	return terms
}

// ExtractPhraseTerms builds the comparison term set for a list of key
// phrases: each whole normalized phrase, its unigrams of at least minWordLen
// characters, and its bigrams and trigrams. A single-word phrase is a term
// in its own right regardless of length.
func ExtractPhraseTerms(phrases []string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, p := range phrases {
		words := tokenize(p)
		if len(words) == 0 {
			continue
		}
		terms[strings.Join(words, " ")] = struct{}{}
		for _, w := range words {
			if len(w) >= minWordLen {
				terms[w] = struct{}{}
			}
		}
		for i := 0; i+1 < len(words); i++ {
			terms[words[i]+" "+words[i+1]] = struct{}{}
		}
		for i := 0; i+2 < len(words); i++ {
			terms[words[i]+" "+words[i+1]+" "+words[i+2]] = struct{}{}
		}
	}
	return terms
}

// tokenize lowercases, strips punctuation except hyphens, and splits on
// whitespace.
func tokenize(text string) []string {
	if text == "" {
		return nil
	}
	lowered := strings.ToLower(text)
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			return r
		}
		return ' '
	}, lowered)
	return strings.Fields(cleaned)
}

// Intersect returns the number of terms present in both sets.
func Intersect(a, b map[string]struct{}) int {
	// Iterate the smaller set.
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for t := range a {
		if _, ok := b[t]; ok {
			n++
		}
	}
	return n
}
