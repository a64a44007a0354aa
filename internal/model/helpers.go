package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// HashContent returns the SHA-256 hex fingerprint of content.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// WordCount counts whitespace-delimited tokens, excluding empty ones.
func WordCount(content string) int {
	return len(strings.Fields(content))
}

// CharCount counts characters (runes), not bytes.
func CharCount(content string) int {
	return utf8.RuneCountInString(content)
}

// SplitLines splits content on newline boundaries. Unlike strings.Split, an
// empty string yields no lines rather than one empty line.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}
