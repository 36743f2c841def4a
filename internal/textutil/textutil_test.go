package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSentences(t *testing.T) {
	sentences := SplitSentences("It rained all night. Nobody came! Why would they?")
	require.Len(t, sentences, 3)
	assert.Equal(t, "It rained all night", sentences[0])
	assert.Equal(t, "Nobody came", sentences[1])
	assert.Equal(t, "Why would they", sentences[2])
}

func TestSplitSentences_Empty(t *testing.T) {
	assert.Empty(t, SplitSentences(""))
	assert.Empty(t, SplitSentences("   "))
}

func TestTokenize_DropsShortTokens(t *testing.T) {
	tokens := Tokenize("He ran to the old mill")
	assert.Equal(t, []string{"ran", "the", "old", "mill"}, tokens)
}

func TestSimilarity_IdenticalTexts(t *testing.T) {
	text := "The detective found the glove near the fountain"
	assert.InDelta(t, 1.0, Similarity(text, text), 1e-9)
}

func TestSimilarity_DisjointTexts(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("apples oranges pears", "granite basalt quartz"))
}

func TestSimilarity_PartialOverlap(t *testing.T) {
	score := Similarity(
		"the detective searched the empty courtyard",
		"the courtyard was empty when the detective arrived",
	)
	assert.Greater(t, score, 0.25)
	assert.Less(t, score, 1.0)
}

func TestSimilarity_EmptyInput(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("", "something"))
	assert.Equal(t, 0.0, Similarity("something", ""))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("The secret was Revealed at last", "reveal", "shock"))
	assert.False(t, ContainsAny("A quiet morning walk", "reveal", "shock"))
}

func TestQuotedSpans(t *testing.T) {
	spans := QuotedSpans(`She said "follow me" and then whispered "quickly".`)
	require.Len(t, spans, 2)
	assert.Equal(t, "follow me", spans[0])
	assert.Equal(t, "quickly", spans[1])
}

func TestQuotedSpans_CurlyQuotes(t *testing.T) {
	spans := QuotedSpans("He shouted “stop right there” across the yard.")
	require.Len(t, spans, 1)
	assert.Equal(t, "stop right there", spans[0])
}

func TestQuotedSpans_NoQuotes(t *testing.T) {
	assert.Empty(t, QuotedSpans("Nothing was said aloud."))
}
