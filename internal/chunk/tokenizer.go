package chunk

import (
	"unicode"
	"unicode/utf8"
)

// Token is one whitespace-delimited word with its byte span in the source
// text. Spans let a chunk carry the exact source slice covering its token
// range, so stripping the overlap and concatenating chunks reconstructs the
// original token stream.
type Token struct {
	// Start is the byte offset of the token's first byte.
	Start int
	// End is the byte offset one past the token's last byte.
	End int
}

// Tokenize splits text into word tokens at Unicode whitespace.
// Whitespace-only input yields no tokens.
func Tokenize(text string) []Token {
	var tokens []Token
	start := -1

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, Token{Start: start, End: i})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
		i += size
	}
	if start >= 0 {
		tokens = append(tokens, Token{Start: start, End: len(text)})
	}

	return tokens
}

// CountTokens returns the number of word tokens in text.
func CountTokens(text string) int {
	count := 0
	inToken := false

	for _, r := range text {
		if unicode.IsSpace(r) {
			inToken = false
		} else if !inToken {
			inToken = true
			count++
		}
	}
	return count
}
