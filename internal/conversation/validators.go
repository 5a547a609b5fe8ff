package conversation

import (
	"regexp"
	"strings"
)

var greetingWords = map[string]bool{
	"hi": true, "hii": true, "hello": true, "welcome": true, "hey": true,
}

// IsGreeting reports whether the trimmed input is one of the greeting words
// that (re)start the flow.
func IsGreeting(input string) bool {
	return greetingWords[strings.ToLower(strings.TrimSpace(input))]
}

// nameCharset allows ASCII letters, Devanagari, digits, whitespace and a few
// punctuation marks seen in real names.
var nameCharset = regexp.MustCompile(`^[A-Za-z0-9\x{0900}-\x{097F}\s.'-]+$`)

// ValidName accepts non-empty names in the allowed charset that are not
// themselves greeting words.
func ValidName(input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || IsGreeting(trimmed) {
		return false
	}
	return nameCharset.MatchString(trimmed)
}

var pincodeRe = regexp.MustCompile(`^\d{6}$`)

// ValidPincodeFormat checks the six-digit shape only; service-area
// membership is a separate check with its own error message.
func ValidPincodeFormat(input string) bool {
	return pincodeRe.MatchString(strings.TrimSpace(input))
}

var (
	addressCharset = regexp.MustCompile(`^[A-Za-z0-9\s,./-]+$`)
	hasLetter      = regexp.MustCompile(`[A-Za-z]`)
	hasDigit       = regexp.MustCompile(`\d`)
)

// localityKeywords hint that free text is actually an address. The whole
// address check is a heuristic filter, not address verification; short
// addresses without a keyword are rejected even if real.
var localityKeywords = []string{
	"street", "road", "lane", "flat", "apartment", "society", "nagar",
	"colony", "sector", "plot", "block", "building", "chowk", "peth",
	"park", "vihar", "marg", "galli", "wadi", "pune",
}

// ValidAddress applies the address heuristic: minimum length, restricted
// charset, at least one letter and one digit, and either a locality keyword
// or fifteen characters.
func ValidAddress(input string) bool {
	trimmed := strings.TrimSpace(input)
	if len(trimmed) < 10 {
		return false
	}
	if !addressCharset.MatchString(trimmed) {
		return false
	}
	if !hasLetter.MatchString(trimmed) || !hasDigit.MatchString(trimmed) {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, kw := range localityKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return len(trimmed) >= 15
}

// IsSkip matches the reply that declines entering a referral code.
func IsSkip(input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), "skip")
}
