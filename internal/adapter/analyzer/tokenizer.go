package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer splits text into lowercase tokens for lexical matching.
type Tokenizer struct{}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Tokenize splits text on whitespace and lowercases each token.
// Keyword scoring matches literal tokens, so no stemming or stopword
// removal is applied here.
func (t *Tokenizer) Tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, strings.ToLower(f))
	}
	return tokens
}

// TokenSet returns the distinct lowercase tokens of text.
func (t *Tokenizer) TokenSet(text string) map[string]struct{} {
	tokens := t.Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// Terms splits text into lowercase word terms on non-word boundaries.
// Used by the hashed embedder, where "mat." and "mat" should land in the
// same bucket.
func Terms(text string) []string {
	var terms []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(unicode.ToLower(r))
		} else {
			if current.Len() > 0 {
				terms = append(terms, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		terms = append(terms, current.String())
	}

	return terms
}
