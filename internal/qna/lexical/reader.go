// Package lexical implements the CPU extractive reader: it ranks passage
// sentences by weighted term overlap with the question and returns the best
// spans trimmed to the configured answer length.
package lexical

import (
	"context"
	"math"
	"strings"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/qna"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/types"
)

// expansionWeight discounts matches reached only through a synonym.
const expansionWeight = 0.5

// Reader is a qna.Model over lexical tables.
type Reader struct {
	config    qna.ReaderConfig
	stopwords map[string]struct{}
	idf       map[string]float64
	synonyms  map[string][]string
}

// New builds a Reader from the manifest config and vocabulary. Built-in
// stopwords and synonyms are always present; vocab extends them.
func New(config qna.ReaderConfig, vocab qna.Vocabulary) *Reader {
	r := &Reader{
		config:    config.WithDefaults(),
		stopwords: make(map[string]struct{}),
		idf:       make(map[string]float64),
		synonyms:  make(map[string][]string),
	}
	for _, w := range defaultStopwords {
		r.stopwords[w] = struct{}{}
	}
	for _, w := range vocab.Stopwords {
		r.stopwords[stem(w)] = struct{}{}
	}
	for term, weight := range vocab.IDF {
		r.idf[stem(term)] = weight
	}
	addSynonyms := func(src map[string][]string) {
		for term, alts := range src {
			key := stem(term)
			for _, alt := range alts {
				r.synonyms[key] = append(r.synonyms[key], stem(alt))
			}
		}
	}
	addSynonyms(defaultSynonyms)
	addSynonyms(vocab.Synonyms)
	return r
}

// FromArtifacts instantiates a Reader from downloaded model artifacts.
func FromArtifacts(artifacts *qna.Artifacts) (*Reader, error) {
	if err := artifacts.Validate(); err != nil {
		return nil, err
	}
	vocab, err := artifacts.DecodeVocabulary()
	if err != nil {
		return nil, err
	}
	return New(artifacts.Manifest.Config, vocab), nil
}

// FindAnswers returns up to TopK spans with a positive score, best first.
func (r *Reader) FindAnswers(ctx context.Context, question, passage string) ([]types.AnswerResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := r.queryTerms(question)
	if len(query) == 0 {
		return nil, nil
	}

	segments := splitSegments(passage)
	segTerms := make([]map[string]struct{}, len(segments))
	df := make(map[string]int)
	for i, seg := range segments {
		set := make(map[string]struct{})
		for _, t := range terms(seg.text) {
			set[t] = struct{}{}
		}
		segTerms[i] = set
		for t := range set {
			df[t]++
		}
	}

	var total float64
	for _, term := range query {
		total += r.weight(term, df, len(segments))
	}
	if total == 0 {
		return nil, nil
	}

	var answers []types.AnswerResult
	for i, seg := range segments {
		if isHeader(seg) {
			continue
		}
		var matched float64
		for _, term := range query {
			matched += r.match(term, segTerms[i], df, len(segments))
		}
		if matched == 0 {
			continue
		}
		start, end := r.window(seg, query)
		answers = append(answers, types.AnswerResult{
			Text:       passage[start:end],
			Score:      math.Min(1, matched/total),
			StartIndex: start,
			EndIndex:   end,
		})
	}

	return qna.Rank(answers, r.config.TopK), nil
}

// queryTerms returns the distinct non-stopword stems of question.
func (r *Reader) queryTerms(question string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range terms(question) {
		if _, stop := r.stopwords[t]; stop {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (r *Reader) weight(term string, df map[string]int, n int) float64 {
	if w, ok := r.idf[term]; ok {
		return w
	}
	return math.Log(float64(n+1)/float64(df[term]+1)) + 1
}

// match scores one query term against a segment: a direct hit counts fully,
// a synonym hit at expansionWeight.
func (r *Reader) match(term string, set map[string]struct{}, df map[string]int, n int) float64 {
	if _, ok := set[term]; ok {
		return r.weight(term, df, n)
	}
	best := 0.0
	for _, alt := range r.synonyms[term] {
		if _, ok := set[alt]; ok {
			best = math.Max(best, expansionWeight*r.weight(alt, df, n))
		}
	}
	return best
}

// window trims a long segment to MaxAnswerWords words around the first
// matching query term.
func (r *Reader) window(seg segment, query []string) (int, int) {
	words := wordPattern.FindAllStringIndex(seg.text, -1)
	limit := r.config.MaxAnswerWords
	if len(words) <= limit {
		return seg.start, seg.end
	}

	wanted := make(map[string]struct{}, len(query))
	for _, q := range query {
		wanted[q] = struct{}{}
		for _, alt := range r.synonyms[q] {
			wanted[alt] = struct{}{}
		}
	}
	anchor := 0
	for i, loc := range words {
		if _, ok := wanted[stem(strings.ToLower(seg.text[loc[0]:loc[1]]))]; ok {
			anchor = i
			break
		}
	}

	first := anchor - limit/4
	if first < 0 {
		first = 0
	}
	last := first + limit
	if last > len(words) {
		last = len(words)
		first = last - limit
	}
	return seg.start + words[first][0], seg.start + words[last-1][1]
}
