// Package observability holds the per-process assistant metrics and the
// formatted output used by the CLI in verbose mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// PrintLoadStatus outputs the model load outcome.
func (p *Printer) PrintLoadStatus(state, backend string, took string, loadErr error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("State:    %s\n", state))
	if backend != "" {
		sb.WriteString(fmt.Sprintf("Backend:  %s\n", backend))
	}
	if took != "" {
		sb.WriteString(fmt.Sprintf("Took:     %s\n", took))
	}
	if loadErr != nil {
		sb.WriteString(fmt.Sprintf("Error:    %v\n", loadErr))
	}
	p.printBox("MODEL", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPassage outputs section sizes of a compiled passage.
func (p *Printer) PrintPassage(passage string) {
	sections := strings.Split(passage, "\n\n")

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Characters: %d\n", len(passage)))
	sb.WriteString(fmt.Sprintf("Words:      %d\n\n", len(strings.Fields(passage))))
	for _, section := range sections {
		header, body, _ := strings.Cut(section, "\n")
		lines := 0
		if body != "" {
			lines = strings.Count(body, "\n") + 1
		}
		sb.WriteString(fmt.Sprintf("  • %-16s %d entries\n", strings.TrimSuffix(header, ":"), lines))
	}
	p.printBox("KNOWLEDGE PASSAGE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAnswer outputs how a question was answered. result may be nil.
func (p *Printer) PrintAnswer(question, reply, source string, result *types.AnswerResult) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Question: %s\n", question))
	sb.WriteString(fmt.Sprintf("Source:   %s\n", source))
	if result != nil {
		sb.WriteString(fmt.Sprintf("Span:     [%d:%d] score %.3f\n", result.StartIndex, result.EndIndex, result.Score))
	}
	sb.WriteString("\n")
	sb.WriteString(reply)
	p.printBox("ANSWER", sb.String())
}

// PrintMetrics outputs a metrics snapshot.
func (p *Printer) PrintMetrics(s Snapshot) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Questions:        %d\n", s.Questions))
	sb.WriteString(fmt.Sprintf("  greetings:      %d\n", s.Greetings))
	sb.WriteString(fmt.Sprintf("  farewells:      %d\n", s.Farewells))
	sb.WriteString(fmt.Sprintf("  model answers:  %d\n", s.ModelAnswers))
	sb.WriteString(fmt.Sprintf("  fallbacks:      %d\n", s.Fallbacks))
	sb.WriteString(fmt.Sprintf("Inference errors: %d\n", s.InferenceErrors))
	sb.WriteString(fmt.Sprintf("Rejected inputs:  %d", s.RejectedInputs))
	if s.LoadBackend != "" {
		sb.WriteString(fmt.Sprintf("\nLoad:             %s in %dms", s.LoadBackend, s.LoadMillis))
	}
	p.printBox("ASSISTANT METRICS", sb.String())
}

// PrintRecentMessages outputs the tail of a transcript.
func (p *Printer) PrintRecentMessages(messages []types.ChatMessage) {
	if len(messages) == 0 {
		return
	}
	start := max(0, len(messages)-maxItemsToShow)

	var sb strings.Builder
	if start > 0 {
		sb.WriteString(fmt.Sprintf("... %d earlier messages\n", start))
	}
	for _, m := range messages[start:] {
		sb.WriteString(fmt.Sprintf("%-9s %s\n", m.Sender+":", m.Text))
	}
	p.printBox("TRANSCRIPT", strings.TrimSuffix(sb.String(), "\n"))
}
