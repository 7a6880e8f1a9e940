package respond

import "strings"

// aiReferences break the human-tutor persona; any occurrence rejects the
// reply outright.
var aiReferences = []string{
	"i am an ai", "i'm an ai", "as an ai", "as a language model",
	"i cannot", "i don't have the ability", "i'm not able to",
	"my training", "i was created to", "i don't experience",
	"my time as ai", "as ai", "before my time", "i'm an artificial",
}

// techTerms are implementation jargon a persona-consistent tutor would never
// say.
var techTerms = []string{
	"neural network", "algorithm", "machine learning",
	"natural language processing", "training data", "parameters",
}

// minDistinctRatio is the distinct-to-total word ratio below which a reply
// longer than repetitionMinWords counts as degenerate.
const (
	minDistinctRatio   = 0.6
	repetitionMinWords = 5
)

// IsAcceptable reports whether a cleaned backend reply may be shown to the
// user. The original utterance is part of the contract for future
// relevance checks but does not influence the current gates.
func IsAcceptable(text, utterance string) bool {
	_ = utterance

	t := strings.TrimSpace(text)
	if len(t) < 3 {
		return false
	}

	lower := strings.ToLower(t)
	for _, ref := range aiReferences {
		if strings.Contains(lower, ref) {
			return false
		}
	}
	for _, term := range techTerms {
		if strings.Contains(lower, term) {
			return false
		}
	}

	if isDegenerate(lower) {
		return false
	}

	// Leaked protocol delimiters mean the backend echoed prompt structure.
	if strings.Contains(t, "<|") || strings.Contains(t, "|>") {
		return false
	}

	return true
}

// isDegenerate flags repetitive output: for replies longer than five words,
// the ratio of distinct words to total words must reach minDistinctRatio.
func isDegenerate(lower string) bool {
	words := strings.Fields(lower)
	if len(words) <= repetitionMinWords {
		return false
	}
	distinct := make(map[string]struct{}, len(words))
	for _, w := range words {
		distinct[w] = struct{}{}
	}
	return float64(len(distinct)) < float64(len(words))*minDistinctRatio
}
