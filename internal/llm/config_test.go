package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ProviderGemini, config.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", config.GetModel(TierFast))
	assert.Equal(t, "gemini-2.5-flash", config.GetModel(TierAccurate))
	assert.Zero(t, config.Temperature)
}

func TestGetModel_Fallback(t *testing.T) {
	config := &Config{Models: map[ModelTier]string{TierFast: "fallback-model"}}
	assert.Equal(t, "fallback-model", config.GetModel(TierAccurate))

	empty := &Config{Models: map[ModelTier]string{}}
	assert.Equal(t, "", empty.GetModel(TierAccurate))
}

func TestWithModel(t *testing.T) {
	original := DefaultConfig()
	updated := original.WithModel(TierAccurate, "custom-model")

	assert.Equal(t, "custom-model", updated.GetModel(TierAccurate))
	assert.Equal(t, "gemini-2.5-flash", original.GetModel(TierAccurate), "original is untouched")
	assert.Equal(t, original.MaxOutputTokens, updated.MaxOutputTokens)
}

func TestAnswerSpanPrompt(t *testing.T) {
	prompt := AnswerSpanPrompt("  What is Minty? ", "Minty is a budgeting app.", 3, 30)

	assert.Contains(t, prompt, "Question: What is Minty?\n")
	assert.Contains(t, prompt, "Minty is a budgeting app.")
	assert.Contains(t, prompt, "at most 3 answers")
	assert.Contains(t, prompt, "at most 30 words")
	assert.Contains(t, prompt, "VERBATIM")
}
