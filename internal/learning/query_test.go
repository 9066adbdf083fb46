package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize_LowercasesAndSplitsOnPunctuation(t *testing.T) {
	assert.Equal(t, []string{"retry", "circuit", "v2"}, tokenize("Retry-Circuit, v2!"))
}

func TestTokenize_Empty(t *testing.T) {
	assert.Empty(t, tokenize("   !!! "))
}

func TestPhraseQuery_JoinsTokensAsQuotedPhrase(t *testing.T) {
	assert.Equal(t, `"retry circuit"`, phraseQuery([]string{"retry", "circuit"}))
}

func TestNearQuery_RequiresAtLeastTwoTokens(t *testing.T) {
	assert.Equal(t, "", nearQuery([]string{"solo"}, 6))
	assert.Equal(t, "NEAR(a b, 6)", nearQuery([]string{"a", "b"}, 6))
}

func TestOrQuery_EscapesQuotesInTokens(t *testing.T) {
	assert.Equal(t, `"a" OR "b""c"`, orQuery([]string{"a", `b"c`}))
}
