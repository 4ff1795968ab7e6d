package assistant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/types"
)

func sampleFacts() *types.Portfolio {
	return &types.Portfolio{
		Profile: types.Profile{Name: "Alice Smith", Title: "Software Engineer"},
		Skills: map[string][]string{
			"languages":  {"Go", "TypeScript", "Python", "SQL", "Bash"},
			"frameworks": {"React"},
			"empty":      nil,
		},
		Experience: []types.Experience{
			{Role: "Backend Engineer", Company: "Acme"},
			{Role: "Intern", Company: "Globex"},
		},
		Projects: []types.Project{{Name: "Minty"}, {Name: "Orbit"}},
		Education: []types.Education{
			{School: "University of Yangon", Credential: "B.Sc. Computer Science"},
		},
	}
}

func TestMatchGreeting(t *testing.T) {
	for _, q := range []string{"Hello there!", "hi", "Hey, who are you?", "  greetings", "Good morning", "good   evening!", "sup", "What's up?", "whats up"} {
		reply, ok := MatchGreeting(q)
		assert.True(t, ok, q)
		assert.Equal(t, GreetingReply, reply, q)
	}
	for _, q := range []string{"highlights of your career", "which project", "", "they said hello"} {
		_, ok := MatchGreeting(q)
		assert.False(t, ok, q)
	}
}

func TestMatchFarewell(t *testing.T) {
	for _, q := range []string{"thanks a lot", "Bye!", "ok goodbye", "See you later", "farewell", "Thank you so much"} {
		reply, ok := MatchFarewell(q)
		assert.True(t, ok, q)
		assert.Equal(t, FarewellReply, reply, q)
	}
	for _, q := range []string{"byte-level models", "thanksgiving plans", "What projects?"} {
		_, ok := MatchFarewell(q)
		assert.False(t, ok, q)
	}
}

func TestFormatAnswer(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"based in   Yangon", "Based in Yangon."},
		{"  minty\n is a\tweb project ", "Minty is a web project."},
		{"really?", "Really?"},
		{"wow!", "Wow!"},
		{"done.", "Done."},
		{"élan vital", "Élan vital."},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAnswer(tt.in), tt.in)
	}
}

func TestFormatAnswer_Idempotent(t *testing.T) {
	inputs := []string{
		"based in Yangon",
		"  lots   of\n\nspace ",
		"already formatted.",
		"question?",
		"ends with ellipsis...",
		"x",
		"123 main street",
		"ünïcode text",
	}
	for _, s := range inputs {
		once := FormatAnswer(s)
		assert.Equal(t, once, FormatAnswer(once), s)
	}
}

func TestDetectTopic(t *testing.T) {
	tests := map[string]Topic{
		"What projects have you built?": TopicProjects,
		"Where did you work before?":    TopicExperience,
		"Which frameworks do you use?":  TopicSkills,
		"What technologies do you know": TopicSkills,
		"Where did you study?":          TopicEducation,
		"What's your favourite colour?": TopicNone,
	}
	for q, want := range tests {
		assert.Equal(t, want, DetectTopic(q), q)
	}
}

func TestTopicFallback(t *testing.T) {
	r := NewRouter(sampleFacts())

	assert.Equal(t,
		"Alice Smith has built projects such as Minty and Orbit. Ask about any of them for details.",
		r.TopicFallback("What projects have you built?"))
	assert.Equal(t,
		"Alice Smith has worked as Backend Engineer at Acme and Intern at Globex.",
		r.TopicFallback("Tell me about your work experience"))
	assert.Equal(t,
		"Alice Smith's skills span frameworks (React); languages (Go, TypeScript, Python, SQL).",
		r.TopicFallback("What skills do you have?"))
	assert.Equal(t,
		"Alice Smith studied B.Sc. Computer Science from University of Yangon.",
		r.TopicFallback("What is your education?"))
	assert.Equal(t,
		"I can tell you about Alice Smith's projects, work experience, skills, and education. What would you like to know?",
		r.TopicFallback("favourite colour?"))
}

func TestTopicFallback_EmptyFacts(t *testing.T) {
	r := NewRouter(nil)

	reply := r.TopicFallback("What projects have you built?")
	assert.True(t, strings.HasPrefix(reply, "I can tell you about the site owner's"), reply)
}

func TestListJoin(t *testing.T) {
	assert.Equal(t, "", listJoin(nil))
	assert.Equal(t, "a", listJoin([]string{"a"}))
	assert.Equal(t, "a and b", listJoin([]string{"a", "b"}))
	assert.Equal(t, "a, b, and c", listJoin([]string{"a", "b", "c"}))
	assert.Equal(t, "a, b, c, and d", listJoin([]string{"a", "b", "c", "d", "e"}))
}
