package assistant

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/types"
)

// Canned replies.
const (
	GreetingReply = "Hello! Ask me anything about the projects, experience, skills, or education featured on this site."
	FarewellReply = "Thanks for stopping by! Feel free to come back with more questions anytime."
	ApologyReply  = "Sorry, I had trouble answering that. Could you try rephrasing your question?"
)

var (
	greetingPattern = regexp.MustCompile(`(?i)^\W*(hi|hello|hey|greetings|good\s+(morning|afternoon|evening)|sup|what'?s\s+up)\b`)
	farewellPattern = regexp.MustCompile(`(?i)\b(bye|goodbye|see\s+you|farewell|thanks|thank\s+you)\b`)
)

// MatchGreeting returns GreetingReply when question opens with a greeting.
func MatchGreeting(question string) (string, bool) {
	if greetingPattern.MatchString(question) {
		return GreetingReply, true
	}
	return "", false
}

// MatchFarewell returns FarewellReply when question contains a sign-off anywhere.
func MatchFarewell(question string) (string, bool) {
	if farewellPattern.MatchString(question) {
		return FarewellReply, true
	}
	return "", false
}

// FormatAnswer collapses whitespace, capitalizes the first letter and ends
// the text with punctuation. Applying it twice changes nothing.
func FormatAnswer(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(text)
	text = string(unicode.ToUpper(first)) + text[size:]
	switch text[len(text)-1] {
	case '.', '!', '?':
		return text
	}
	return text + "."
}

// Topic is a keyword group recognized by the fallback router.
type Topic string

const (
	TopicProjects   Topic = "projects"
	TopicExperience Topic = "experience"
	TopicSkills     Topic = "skills"
	TopicEducation  Topic = "education"
	TopicNone       Topic = ""
)

var topicKeywords = []struct {
	topic    Topic
	keywords []string
}{
	{TopicProjects, []string{"project", "built", "portfolio"}},
	{TopicExperience, []string{"experience", "work", "job", "career", "company", "role"}},
	{TopicSkills, []string{"skill", "tech", "stack", "language", "framework", "tool"}},
	{TopicEducation, []string{"education", "school", "degree", "stud", "university", "college"}},
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// DetectTopic returns the first keyword group with a keyword that starts a
// word of question.
func DetectTopic(question string) Topic {
	words := wordPattern.FindAllString(strings.ToLower(question), -1)
	for _, group := range topicKeywords {
		for _, kw := range group.keywords {
			for _, w := range words {
				if strings.HasPrefix(w, kw) {
					return group.topic
				}
			}
		}
	}
	return TopicNone
}

// maxListed bounds how many entries a canned reply names.
const maxListed = 4

// Router builds topic replies from a Fact Set.
type Router struct {
	facts *types.Portfolio
}

// NewRouter creates a Router. A nil Fact Set yields generic replies.
func NewRouter(facts *types.Portfolio) *Router {
	if facts == nil {
		facts = &types.Portfolio{}
	}
	return &Router{facts: facts}
}

// TopicFallback answers from the Fact Set when the model had nothing.
func (r *Router) TopicFallback(question string) string {
	switch DetectTopic(question) {
	case TopicProjects:
		if reply := r.projects(); reply != "" {
			return reply
		}
	case TopicExperience:
		if reply := r.experience(); reply != "" {
			return reply
		}
	case TopicSkills:
		if reply := r.skills(); reply != "" {
			return reply
		}
	case TopicEducation:
		if reply := r.education(); reply != "" {
			return reply
		}
	}
	return r.generic()
}

func (r *Router) owner() string {
	if name := strings.TrimSpace(r.facts.Profile.Name); name != "" {
		return name
	}
	return "The site owner"
}

func (r *Router) projects() string {
	names := r.facts.ProjectNames()
	if len(names) == 0 {
		return ""
	}
	return fmt.Sprintf("%s has built projects such as %s. Ask about any of them for details.",
		r.owner(), listJoin(names))
}

func (r *Router) experience() string {
	var roles []string
	for _, e := range r.facts.Experience {
		switch {
		case e.Role != "" && e.Company != "":
			roles = append(roles, e.Role+" at "+e.Company)
		case e.Role != "":
			roles = append(roles, e.Role)
		case e.Company != "":
			roles = append(roles, e.Company)
		}
	}
	if len(roles) == 0 {
		return ""
	}
	return fmt.Sprintf("%s has worked as %s.", r.owner(), listJoin(roles))
}

func (r *Router) skills() string {
	categories := make([]string, 0, len(r.facts.Skills))
	for category, items := range r.facts.Skills {
		if len(items) > 0 {
			categories = append(categories, category)
		}
	}
	if len(categories) == 0 {
		return ""
	}
	sort.Strings(categories)

	parts := make([]string, 0, len(categories))
	for _, category := range categories {
		items := r.facts.Skills[category]
		if len(items) > maxListed {
			items = items[:maxListed]
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", category, strings.Join(items, ", ")))
	}
	return fmt.Sprintf("%s's skills span %s.", r.owner(), strings.Join(parts, "; "))
}

func (r *Router) education() string {
	var entries []string
	for _, e := range r.facts.Education {
		switch {
		case e.Credential != "" && e.School != "":
			entries = append(entries, e.Credential+" from "+e.School)
		case e.School != "":
			entries = append(entries, e.School)
		}
	}
	if len(entries) == 0 {
		return ""
	}
	return fmt.Sprintf("%s studied %s.", r.owner(), listJoin(entries))
}

func (r *Router) generic() string {
	return "I can tell you about " + possessive(r.facts.Profile.Name) +
		" projects, work experience, skills, and education. What would you like to know?"
}

func possessive(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "the site owner's"
	}
	return name + "'s"
}

// listJoin renders "a", "a and b", or "a, b, and c", naming at most maxListed items.
func listJoin(items []string) string {
	if len(items) > maxListed {
		items = items[:maxListed]
	}
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
}
