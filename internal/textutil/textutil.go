// Package textutil provides the text heuristics the pipeline stages share:
// sentence splitting for panel drafts and term-vector similarity for the
// blind-test score.
package textutil

import (
	"math"
	"regexp"
	"strings"
)

// tokenPattern matches non-alphanumeric sequences for tokenization.
var tokenPattern = regexp.MustCompile(`[^a-z0-9']+`)

// sentencePattern splits narrative text on terminal punctuation.
var sentencePattern = regexp.MustCompile(`[.!?]+`)

// SplitSentences breaks narrative text into trimmed, non-empty sentences.
func SplitSentences(text string) []string {
	raw := sentencePattern.Split(text, -1)
	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		sentences = append(sentences, s)
	}
	return sentences
}

// Tokenize splits text into lowercase tokens, dropping one- and
// two-character tokens.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	raw := tokenPattern.Split(lowered, -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		token = strings.Trim(token, "'")
		if len(token) < 3 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// termVector is a term-frequency vector with a precomputed norm.
type termVector struct {
	terms map[string]float64
	norm  float64
}

func newTermVector(text string) *termVector {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &termVector{terms: counts, norm: math.Sqrt(norm)}
}

// Similarity computes the cosine similarity of the term-frequency vectors
// of two texts. The result is in [0,1]; identical texts score 1 and texts
// with no shared terms score 0.
func Similarity(a, b string) float64 {
	va := newTermVector(a)
	vb := newTermVector(b)
	if va == nil || vb == nil || va.norm == 0 || vb.norm == 0 {
		return 0
	}
	var dot float64
	for term, count := range va.terms {
		if other, ok := vb.terms[term]; ok {
			dot += count * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (va.norm * vb.norm)
}

// ContainsAny reports whether text contains any of the given keywords,
// case-insensitively. Stages use it to weight emphatic panels.
func ContainsAny(text string, keywords ...string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// QuotedSpans extracts double-quoted spans from narrative text, used by
// the dialogue suggestion heuristic.
func QuotedSpans(text string) []string {
	var spans []string
	var inQuote bool
	var current strings.Builder
	for _, r := range text {
		switch {
		case r == '"' || r == '“' || r == '”':
			if inQuote {
				if s := strings.TrimSpace(current.String()); s != "" {
					spans = append(spans, s)
				}
				current.Reset()
			}
			inQuote = !inQuote
		case inQuote:
			current.WriteRune(r)
		}
	}
	return spans
}
