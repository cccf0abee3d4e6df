// Package text holds the tokenizer shared by generation and haiku detection.
package text

import "strings"

// Tokenize splits s into whitespace-delimited tokens. Runs of whitespace
// (including newlines) are a single separator; empty tokens never appear.
func Tokenize(s string) []string {
	return strings.Fields(s)
}

// Join rejoins tokens with single spaces.
func Join(tokens []string) string {
	return strings.Join(tokens, " ")
}
