// Package qna defines the extractive question-answering model contract and the
// artifacts a model is instantiated from.
package qna

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/types"
)

// Model extracts ranked answer spans for a question from a passage.
// Implementations are read-only after construction and safe for concurrent use.
type Model interface {
	FindAnswers(ctx context.Context, question, passage string) ([]types.AnswerResult, error)
}

// Defaults applied when a manifest leaves the reader config unset.
const (
	DefaultMaxAnswerWords = 40
	DefaultTopK           = 3
)

// Manifest is the model.json document served by the model hub.
type Manifest struct {
	Format          string          `json:"format"`
	GeneratedBy     string          `json:"generatedBy,omitempty"`
	ModelTopology   json.RawMessage `json:"modelTopology,omitempty"`
	Config          ReaderConfig    `json:"qnaConfig"`
	WeightsManifest []WeightGroup   `json:"weightsManifest"`
}

// ReaderConfig tunes span extraction.
type ReaderConfig struct {
	MaxAnswerWords int `json:"maxAnswerWords,omitempty"`
	TopK           int `json:"topK,omitempty"`
}

// WithDefaults fills unset fields.
func (c ReaderConfig) WithDefaults() ReaderConfig {
	if c.MaxAnswerWords <= 0 {
		c.MaxAnswerWords = DefaultMaxAnswerWords
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	return c
}

// WeightGroup lists shard files relative to the manifest.
type WeightGroup struct {
	Paths []string `json:"paths"`
}

// ShardPaths returns every shard path in manifest order.
func (m *Manifest) ShardPaths() []string {
	var paths []string
	for _, group := range m.WeightsManifest {
		paths = append(paths, group.Paths...)
	}
	return paths
}

// Shard is one downloaded weight file.
type Shard struct {
	Path string
	URL  string
	Data []byte
}

// IsJSON reports whether the shard path names a JSON file.
func (s Shard) IsJSON() bool {
	name, _, _ := strings.Cut(s.Path, "?")
	return strings.EqualFold(path.Ext(name), ".json")
}

// Artifacts is everything fetched for one model.
type Artifacts struct {
	SourceURL string
	Manifest  Manifest
	Shards    []Shard
}

// Size returns the total shard payload in bytes.
func (a *Artifacts) Size() int {
	total := 0
	for _, s := range a.Shards {
		total += len(s.Data)
	}
	return total
}

// Validate checks that the manifest describes a model at all.
func (a *Artifacts) Validate() error {
	if a == nil {
		return fmt.Errorf("no model artifacts")
	}
	if a.Manifest.Format == "" && len(a.Manifest.ModelTopology) == 0 && len(a.Manifest.WeightsManifest) == 0 {
		return fmt.Errorf("model manifest at %s is empty", a.SourceURL)
	}
	return nil
}

// Vocabulary holds the lexical tables a reader may ship in JSON weight shards.
type Vocabulary struct {
	Stopwords []string            `json:"stopwords,omitempty"`
	IDF       map[string]float64  `json:"idf,omitempty"`
	Synonyms  map[string][]string `json:"synonyms,omitempty"`
}

// Merge folds other into v; later shards win on conflicting IDF entries.
func (v *Vocabulary) Merge(other Vocabulary) {
	v.Stopwords = append(v.Stopwords, other.Stopwords...)
	if len(other.IDF) > 0 && v.IDF == nil {
		v.IDF = make(map[string]float64, len(other.IDF))
	}
	for term, weight := range other.IDF {
		v.IDF[term] = weight
	}
	if len(other.Synonyms) > 0 && v.Synonyms == nil {
		v.Synonyms = make(map[string][]string, len(other.Synonyms))
	}
	for term, alts := range other.Synonyms {
		v.Synonyms[term] = append(v.Synonyms[term], alts...)
	}
}

// DecodeVocabulary merges every .json shard into one Vocabulary. Other shards
// are opaque tensor data and are skipped whatever their bytes look like.
func (a *Artifacts) DecodeVocabulary() (Vocabulary, error) {
	var vocab Vocabulary
	for _, shard := range a.Shards {
		if !shard.IsJSON() {
			continue
		}
		var part Vocabulary
		if err := json.Unmarshal(shard.Data, &part); err != nil {
			return Vocabulary{}, fmt.Errorf("failed to decode shard %s: %w", shard.Path, err)
		}
		vocab.Merge(part)
	}
	return vocab, nil
}
