package respond

import (
	"regexp"
	"strings"

	"github.com/colinbot/colin/internal/colin/prompt"
)

const (
	// maxReplyWords is the readability bound on a backend reply.
	maxReplyWords = 50
	// truncateToWords is the target length when a reply is cut down.
	truncateToWords = 45
)

// artifactTokens are the role delimiters the prompt builder emits; a backend
// echoing its input leaks them into the reply.
var artifactTokens = []string{
	prompt.TokenEnd, prompt.TokenAssistant, prompt.TokenUser, prompt.TokenSystem,
}

// pseudoTagRE matches any residual <|...|> tag not covered by the known set.
var pseudoTagRE = regexp.MustCompile(`<\|[^|]*\|>`)

// boundaryMarkers begin a new conversational turn; everything from the first
// one onward is discarded.
var boundaryMarkers = []string{"\n<|", "\nUser:", "\nHuman:", "\nAssistant:"}

// informalEndings are sign-off words that read fine without terminal
// punctuation.
var informalEndings = []string{"thanks", "please", "hello", "hi", "bye", "okay", "ok"}

// Clean normalises a raw backend reply for delivery: protocol tokens are
// stripped, the text is cut at the first conversation boundary, whitespace
// runs collapse to single spaces, stray leading punctuation is removed,
// terminal punctuation is ensured, and over-long replies are truncated near
// a sentence boundary. Clean is idempotent.
func Clean(raw string) string {
	s := raw

	for _, tok := range artifactTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	s = pseudoTagRE.ReplaceAllString(s, "")

	for _, marker := range boundaryMarkers {
		if i := strings.Index(s, marker); i >= 0 {
			s = s[:i]
			break
		}
	}

	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimLeft(s, ".,!?: ")

	if s != "" && !endsInTerminalPunctuation(s) && !endsInformally(s) {
		s += "."
	}

	words := strings.Fields(s)
	if len(words) > maxReplyWords {
		if first, ok := firstSentence(s); ok {
			s = first
		} else {
			s = strings.Join(words[:truncateToWords], " ") + "."
		}
	}

	return strings.TrimSpace(s)
}

func endsInTerminalPunctuation(s string) bool {
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?")
}

// endsInformally reports whether the last word is a casual sign-off.
func endsInformally(s string) bool {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return false
	}
	last := fields[len(fields)-1]
	for _, w := range informalEndings {
		if last == w {
			return true
		}
	}
	return false
}

// firstSentence returns the text up to and including the first period when
// that prefix is short enough to stand alone as the truncated reply.
func firstSentence(s string) (string, bool) {
	i := strings.Index(s, ".")
	if i < 0 {
		return "", false
	}
	first := s[:i+1]
	if len(strings.Fields(first)) > truncateToWords {
		return "", false
	}
	return first, true
}
