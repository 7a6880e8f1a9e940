// Package respond decides what text goes back to the user: it cleans and
// gates replies coming from the generation backend, produces keyword-matched
// fallback replies when the backend path fails, and hosts the Resolver that
// ties the whole pipeline together.
package respond

import "strings"

// Keyword groups for utterance classification. Matching is on whole words
// (with a substring check only for multi-word phrases) so that e.g. "this"
// never registers as a greeting via "hi".
var (
	greetingWords  = []string{"hello", "hi", "hey", "howdy", "greetings"}
	greetingPhrase = []string{"good morning", "good afternoon", "good evening"}

	farewellWords  = []string{"bye", "goodbye", "farewell"}
	farewellPhrase = []string{"see you", "talk later", "good night"}

	helpWords = []string{"help", "assist", "support"}

	grammarWords = []string{"grammar", "learn", "study", "practice", "vocabulary"}

	interrogatives = []string{
		"what", "how", "why", "when", "where", "who",
		"can", "do", "did", "will", "would", "could", "should",
	}
)

// IsGreeting reports whether the utterance reads as a greeting.
func IsGreeting(s string) bool {
	return matchesAny(s, greetingWords, greetingPhrase)
}

// IsFarewell reports whether the utterance reads as a goodbye.
func IsFarewell(s string) bool {
	return matchesAny(s, farewellWords, farewellPhrase)
}

// IsQuestion reports whether the utterance looks like a question: it
// contains a question mark or opens with an interrogative word.
func IsQuestion(s string) bool {
	if strings.Contains(s, "?") {
		return true
	}
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return false
	}
	first := strings.Trim(fields[0], ".,!;:'\"")
	for _, q := range interrogatives {
		if first == q {
			return true
		}
	}
	return false
}

func isHelpRequest(s string) bool { return matchesAny(s, helpWords, nil) }
func isGrammarTopic(s string) bool { return matchesAny(s, grammarWords, nil) }

// matchesAny checks words against the tokenized utterance and phrases as
// lowercase substrings.
func matchesAny(s string, words, phrases []string) bool {
	lower := strings.ToLower(s)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	if len(words) == 0 {
		return false
	}
	for _, f := range strings.Fields(lower) {
		f = strings.Trim(f, ".,!?;:'\"()")
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}
