package learning

import (
	"strconv"
	"strings"
	"unicode"
)

// tokenize splits query text into lowercase alphanumeric tokens, matching
// FTS5's unicode61 tokenizer closely enough for query construction.
func tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// escapeFTSToken quotes a token for safe embedding inside an FTS5 MATCH
// expression, neutralizing any FTS5 syntax characters it might contain.
func escapeFTSToken(tok string) string {
	return `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
}

// phraseQuery builds an exact-phrase MATCH expression: "tok1 tok2 tok3".
func phraseQuery(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	return `"` + strings.Join(tokens, " ") + `"`
}

// nearQuery builds a proximity MATCH expression allowing the tokens to
// appear in any order within a small window.
func nearQuery(tokens []string, window int) string {
	if len(tokens) < 2 {
		return ""
	}
	return "NEAR(" + strings.Join(tokens, " ") + ", " + strconv.Itoa(window) + ")"
}

// orQuery builds an any-of MATCH expression: tok1 OR tok2 OR tok3.
func orQuery(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = escapeFTSToken(t)
	}
	return strings.Join(quoted, " OR ")
}
