package llm

import (
	"fmt"
	"strings"
)

// AnswerSpanPrompt asks the model to behave like an extractive reader: every
// answer must be copied verbatim from the passage.
func AnswerSpanPrompt(question, passage string, maxAnswers, maxWords int) string {
	var sb strings.Builder

	sb.WriteString("You are an extractive question-answering reader.\n")
	sb.WriteString("Select the spans of the passage that best answer the question.\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n")
	sb.WriteString("{\n  \"answers\": [{\"text\": \"string\", \"score\": number}]\n}\n\n")

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Copy each answer VERBATIM from the passage; never paraphrase or add words.\n")
	sb.WriteString(fmt.Sprintf("- Return at most %d answers, best first, each at most %d words.\n", maxAnswers, maxWords))
	sb.WriteString("- score is your confidence between 0 and 1.\n")
	sb.WriteString("- If the passage does not contain an answer, return {\"answers\": []}.\n\n")

	sb.WriteString("Question: ")
	sb.WriteString(strings.TrimSpace(question))
	sb.WriteString("\n\nPassage:\n\"\"\"\n")
	sb.WriteString(passage)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}
