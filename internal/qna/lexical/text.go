package lexical

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+[+#]*`)

// segment is one sentence-like span of the passage with byte offsets.
type segment struct {
	start, end int
	text       string
}

// splitSegments breaks passage into sentences at newlines and at terminal
// punctuation followed by whitespace. Offsets index into passage.
func splitSegments(passage string) []segment {
	var out []segment
	start := 0
	emit := func(end int) {
		raw := passage[start:end]
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			lead := strings.Index(raw, trimmed)
			out = append(out, segment{start: start + lead, end: start + lead + len(trimmed), text: trimmed})
		}
		start = end
	}

	for i := 0; i < len(passage); i++ {
		switch passage[i] {
		case '\n':
			emit(i)
		case '.', '!', '?':
			if i+1 == len(passage) || passage[i+1] == ' ' || passage[i+1] == '\n' {
				emit(i + 1)
			}
		}
	}
	emit(len(passage))
	return out
}

// isHeader reports segments such as "Projects:" that carry no facts.
func isHeader(s segment) bool {
	return strings.HasSuffix(s.text, ":") && len(strings.Fields(s.text)) <= 2
}

// stem reduces common English inflections so "projects" matches "project".
func stem(word string) string {
	switch {
	case len(word) > 4 && strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case len(word) > 4 && strings.HasSuffix(word, "ied"):
		return word[:len(word)-3] + "y"
	case len(word) > 5 && strings.HasSuffix(word, "ing"):
		return word[:len(word)-3]
	case len(word) > 4 && strings.HasSuffix(word, "ed"):
		return word[:len(word)-2]
	case len(word) > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		return word[:len(word)-1]
	}
	return word
}

// terms returns the stemmed lowercase words of text in order.
func terms(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, stem(w))
	}
	return out
}

var defaultStopwords = []string{
	"a", "about", "an", "and", "any", "are", "as", "at", "be", "been", "by",
	"can", "could", "did", "do", "doe", "does", "for", "from", "had", "has", "have",
	"he", "her", "his", "how", "i", "in", "is", "it", "its", "me", "my", "of",
	"on", "or", "our", "please", "she", "some", "tell", "that", "the", "their",
	"them", "they", "thi", "this", "to", "us", "was", "we", "were",
	"what", "when", "where", "which", "who", "whom", "why", "with", "would",
	"you", "your",
}

var defaultSynonyms = map[string][]string{
	"job":        {"experience", "work", "role", "company"},
	"work":       {"experience", "role", "company"},
	"career":     {"experience", "role"},
	"built":      {"project", "build"},
	"build":      {"project"},
	"made":       {"project"},
	"study":      {"education", "school", "course", "degree", "university"},
	"school":     {"education"},
	"degree":     {"education"},
	"university": {"education", "school"},
	"tech":       {"technology", "skill"},
	"language":   {"skill"},
	"stack":      {"skill", "technology"},
	"certify":    {"certification"},
	"award":      {"achievement"},
	"live":       {"based"},
	"contact":    {"email", "website"},
}
