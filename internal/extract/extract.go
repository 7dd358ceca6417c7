// Package extract finds URL candidates in free-form message text.
package extract

import "regexp"

// urlPattern matches scheme-prefixed http(s)/ftp URLs and bare www. hosts.
// A match runs greedily up to whitespace or one of the delimiter characters
// <>"{}|\^`[] that terminate a URL in prose.
var urlPattern = regexp.MustCompile(`(?i)\b(?:(?:https?|ftp)://|www\.)[^\s<>"{}|\\^` + "`" + `\[\]]+`)

// Token is a URL candidate found in a message, with its byte span in the
// original text. Spans let callers replace tokens by position instead of by
// substring search.
type Token struct {
	Text  string
	Start int
	End   int
}

// Tokens returns all URL candidates in text, in order of appearance.
// Duplicates are preserved. It never fails; text without URLs yields nil.
func Tokens(text string) []Token {
	spans := urlPattern.FindAllStringIndex(text, -1)
	if spans == nil {
		return nil
	}

	tokens := make([]Token, 0, len(spans))
	for _, span := range spans {
		tokens = append(tokens, Token{
			Text:  text[span[0]:span[1]],
			Start: span[0],
			End:   span[1],
		})
	}

	return tokens
}

// URLs returns just the matched text of every URL candidate, in order.
func URLs(text string) []string {
	tokens := Tokens(text)
	if tokens == nil {
		return nil
	}

	urls := make([]string, len(tokens))
	for i, tok := range tokens {
		urls[i] = tok.Text
	}

	return urls
}
