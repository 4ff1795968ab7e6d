package qna

import (
	"sort"
	"strings"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/types"
)

// Rank sorts answers by descending score, keeping passage order on ties, and
// truncates to k (k <= 0 keeps all).
func Rank(answers []types.AnswerResult, k int) []types.AnswerResult {
	sort.SliceStable(answers, func(i, j int) bool {
		if answers[i].Score != answers[j].Score {
			return answers[i].Score > answers[j].Score
		}
		return answers[i].StartIndex < answers[j].StartIndex
	})
	if k > 0 && len(answers) > k {
		answers = answers[:k]
	}
	return answers
}

// Locate finds text inside passage and returns its byte offsets. Matching
// falls back to a case-insensitive search when lowering keeps byte offsets. ok is false when text is absent.
func Locate(passage, text string) (start, end int, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, 0, false
	}
	if idx := strings.Index(passage, text); idx >= 0 {
		return idx, idx + len(text), true
	}
	lowerPassage, lowerText := strings.ToLower(passage), strings.ToLower(text)
	if len(lowerPassage) != len(passage) || len(lowerText) != len(text) {
		return 0, 0, false
	}
	if idx := strings.Index(lowerPassage, lowerText); idx >= 0 {
		return idx, idx + len(text), true
	}
	return 0, 0, false
}
