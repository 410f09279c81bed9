package domain

import (
	"regexp"
	"strings"
)

// This file holds the small, pure text-matching heuristics shared by the
// scoring engine (§4.6) and the creative-insight engine (§4.7). Everything
// here operates on already-lowercased ad copy.

var discountPattern = regexp.MustCompile(`\d+\s*%|\boff\b|\bsale\b|\bdiscount\b|\bdeal\b`)

// containsDiscountSignal reports whether text mentions a percentage-off,
// "off", "sale", or similar discount cue.
func containsDiscountSignal(text string) bool {
	return discountPattern.MatchString(strings.ToLower(text))
}

// emojiRanges are the common Unicode blocks used by marketing copy emoji.
var emojiRanges = []*regexp.Regexp{
	regexp.MustCompile(`[\x{1F300}-\x{1FAFF}]`),
	regexp.MustCompile(`[\x{2600}-\x{27BF}]`),
}

// containsEmoji reports whether text contains at least one emoji codepoint.
func containsEmoji(text string) bool {
	for _, re := range emojiRanges {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// containsCTAPhrase reports whether text contains a phrase from the closed
// call-to-action vocabulary.
func containsCTAPhrase(text string) bool {
	lowered := strings.ToLower(text)
	for _, phrase := range ctaVocabulary {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

var hookPattern = regexp.MustCompile(`\b(imagine|introducing|discover|finally|warning|attention|secret|tired of)\b`)
var benefitPattern = regexp.MustCompile(`\b(save|free|easy|guarantee|fast|premium|exclusive|best|upgrade)\b`)
var socialProofPattern = regexp.MustCompile(`\b(reviews?|customers|rated|trusted|bestseller|5 star|thousands|millions)\b`)
var urgencyPattern = regexp.MustCompile(`\b(now|today|limited|hurry|last chance|ends soon|while supplies last)\b`)
var emotionalPattern = regexp.MustCompile(`\b(love|amazing|incredible|perfect|beautiful|stunning|obsessed)\b`)

var positiveLexicon = []string{"love", "amazing", "great", "best", "perfect", "happy", "excellent", "awesome"}
var negativeLexicon = []string{"bad", "worst", "hate", "terrible", "awful", "disappointing", "poor"}
