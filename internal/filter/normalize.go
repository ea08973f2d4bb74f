package filter

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	urlRe     = regexp.MustCompile(`http\S+|www\.\S+`)
	mentionRe = regexp.MustCompile(`[@#][\p{L}\p{N}_]+`)
	punctRe   = regexp.MustCompile(`[^\p{L}\p{N}\s_]`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// urlDisplayLength is the fixed character cost X assigns to any link,
// regardless of its literal length.
const urlDisplayLength = 23

// Normalize lowercases the text and strips URLs, mentions, hashtags,
// punctuation and extra whitespace. Two posts that normalize to the
// same string are exact duplicates.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = urlRe.ReplaceAllString(text, "")
	text = mentionRe.ReplaceAllString(text, "")
	text = punctRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// HashContent returns the hex SHA-256 of the normalized text
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}

// EffectiveLength counts the characters of a short-form post, with
// every URL costing exactly 23 characters
func EffectiveLength(text string) int {
	replaced := urlRe.ReplaceAllString(text, strings.Repeat("X", urlDisplayLength))
	return len([]rune(replaced))
}
