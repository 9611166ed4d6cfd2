package wrapper

import "strings"

// DeriveFunctionName converts a problem title into a camelCase identifier.
//
// The title is split on whitespace and every rune that is not an ASCII letter
// or digit is dropped. Mixed-case words are further split at each upper-case
// letter, so a derived name fed back in comes out unchanged. The first part is
// lower-cased; later parts are capitalised. "Two Sum" becomes "twoSum".
//
// Titles without any letters or digits yield "".
func DeriveFunctionName(title string) string {
	var parts []string
	for _, word := range strings.Fields(title) {
		word = stripNonAlnum(word)
		if word == "" {
			continue
		}
		parts = append(parts, splitCamel(word)...)
	}

	var b strings.Builder
	for i, p := range parts {
		if i == 0 {
			b.WriteString(strings.ToLower(p))
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(strings.ToLower(p[1:]))
	}
	return b.String()
}

// IsIdentifier reports whether s is usable as a function or parameter name in
// every supported language: an ASCII letter followed by letters, digits or
// underscores. A leading underscore is reserved for generated driver code.
func IsIdentifier(s string) bool {
	if s == "" || !isLetter(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isLetter(s[i]) && !isDigit(s[i]) && s[i] != '_' {
			return false
		}
	}
	return true
}

func stripNonAlnum(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x80 && (isLetter(byte(r)) || isDigit(byte(r))) {
			return r
		}
		return -1
	}, s)
}

// splitCamel splits a mixed-case word before every upper-case letter.
// Words in a single case are returned whole, so "SUM" stays one part.
func splitCamel(word string) []string {
	if !hasLower(word) || !hasUpper(word) {
		return []string{word}
	}
	var parts []string
	start := 0
	for i := 1; i < len(word); i++ {
		if isUpper(word[i]) {
			parts = append(parts, word[start:i])
			start = i
		}
	}
	return append(parts, word[start:])
}

func hasLower(s string) bool {
	for i := 0; i < len(s); i++ {
		if isLower(s[i]) {
			return true
		}
	}
	return false
}

func hasUpper(s string) bool {
	for i := 0; i < len(s); i++ {
		if isUpper(s[i]) {
			return true
		}
	}
	return false
}

func isLower(c byte) bool  { return c >= 'a' && c <= 'z' }
func isUpper(c byte) bool  { return c >= 'A' && c <= 'Z' }
func isLetter(c byte) bool { return isLower(c) || isUpper(c) }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
