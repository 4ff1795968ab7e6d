// Package knowledge compiles the portfolio Fact Set into the natural-language
// passage the question-answering model searches over.
package knowledge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/types"
)

// Section headers, in passage order.
const (
	SectionAbout          = "About"
	SectionSkills         = "Skills"
	SectionExperience     = "Experience"
	SectionProjects       = "Projects"
	SectionEducation      = "Education"
	SectionCertifications = "Certifications"
	SectionAchievements   = "Achievements"
)

// Compile renders the Fact Set as one passage. Sections are joined by blank lines
// and always appear, even when their source list is empty. Compile is pure and
// deterministic; a nil portfolio yields an empty passage.
func Compile(p *types.Portfolio) string {
	if p == nil {
		return ""
	}

	sections := []string{
		section(SectionAbout, aboutLines(p)),
		section(SectionSkills, skillLines(p)),
		section(SectionExperience, mapLines(p.Experience, formatExperience)),
		section(SectionProjects, mapLines(p.Projects, formatProject)),
		section(SectionEducation, mapLines(p.Education, formatEducation)),
		section(SectionCertifications, mapLines(p.Certifications, formatCertification)),
		section(SectionAchievements, mapLines(p.Achievements, formatAchievement)),
	}
	return strings.Join(sections, "\n\n")
}

func section(header string, lines []string) string {
	if len(lines) == 0 {
		return header + ":"
	}
	return header + ":\n" + strings.Join(lines, "\n")
}

func mapLines[T any](items []T, format func(T) string) []string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		if line := format(item); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func aboutLines(p *types.Portfolio) []string {
	prof := p.Profile
	var sb strings.Builder

	name := orDefault(prof.Name, "The site owner")
	sb.WriteString(name)
	if prof.Title != "" {
		sb.WriteString(" is a " + prof.Title)
	} else {
		sb.WriteString(" is a professional")
	}
	if prof.Location != "" {
		sb.WriteString(" based in " + prof.Location)
	}
	sb.WriteString(".")

	for _, extra := range []string{prof.Summary, prof.Tagline} {
		if text := plainText(extra); text != "" {
			sb.WriteString(" " + sentence(text))
		}
	}
	if prof.Email != "" {
		sb.WriteString(fmt.Sprintf(" %s can be contacted at %s.", name, prof.Email))
	}
	if prof.Website != "" {
		sb.WriteString(fmt.Sprintf(" The portfolio website is %s.", prof.Website))
	}
	return []string{sb.String()}
}

func skillLines(p *types.Portfolio) []string {
	categories := make([]string, 0, len(p.Skills))
	for category := range p.Skills {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	name := orDefault(p.Profile.Name, "The site owner")
	lines := make([]string, 0, len(categories))
	for _, category := range categories {
		skills := nonEmpty(p.Skills[category])
		if len(skills) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s's %s skills include %s.", name, category, strings.Join(skills, ", ")))
	}
	return lines
}

func formatExperience(e types.Experience) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s at %s", orDefault(e.Role, "Role"), orDefault(e.Company, "an organization")))
	if e.Type != "" {
		sb.WriteString(" (" + e.Type + ")")
	}
	if e.Period != "" {
		sb.WriteString(" from " + e.Period)
	}
	if e.Location != "" {
		sb.WriteString(" in " + e.Location)
	}
	sb.WriteString(".")

	if bullets := sentences(e.Achievements); bullets != "" {
		sb.WriteString(" " + bullets)
	}
	sb.WriteString(" Technologies used: " + strings.Join(nonEmpty(e.Technologies), ", ") + ".")
	return sb.String()
}

func formatProject(pr types.Project) string {
	var sb strings.Builder
	sb.WriteString(orDefault(pr.Name, "Unnamed project"))
	if pr.Category != "" {
		sb.WriteString(" is a " + pr.Category + " project")
	} else {
		sb.WriteString(" is a project")
	}
	if pr.Year != "" {
		sb.WriteString(" from " + pr.Year)
	}
	if pr.Status != "" {
		sb.WriteString(" (" + pr.Status + ")")
	}
	sb.WriteString(".")

	if desc := plainText(pr.Description); desc != "" {
		sb.WriteString(" " + sentence(desc))
	}
	if features := nonEmpty(pr.Features); len(features) > 0 {
		sb.WriteString(" Features: " + strings.Join(features, "; ") + ".")
	}
	sb.WriteString(" Built with " + strings.Join(nonEmpty(pr.Stack), ", ") + ".")
	return sb.String()
}

func formatEducation(ed types.Education) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s from %s", orDefault(ed.Credential, "Studies"), orDefault(ed.School, "a school")))
	if ed.Period != "" {
		sb.WriteString(" (" + ed.Period + ")")
	}
	if ed.GPA != "" {
		sb.WriteString(" with a GPA of " + ed.GPA)
	}
	sb.WriteString(".")
	sb.WriteString(" Courses: " + strings.Join(nonEmpty(ed.Courses), ", ") + ".")
	return sb.String()
}

func formatCertification(c types.Certification) string {
	var sb strings.Builder
	sb.WriteString(orDefault(c.Name, "A certification"))
	if c.Issuer != "" {
		sb.WriteString(" issued by " + c.Issuer)
	}
	if c.Year != "" {
		sb.WriteString(" in " + c.Year)
	}
	sb.WriteString(".")
	if desc := plainText(c.Description); desc != "" {
		sb.WriteString(" " + sentence(desc))
	}
	return sb.String()
}

func formatAchievement(a types.Achievement) string {
	var sb strings.Builder
	sb.WriteString(orDefault(a.Title, "An achievement"))
	var meta []string
	if a.Year != "" {
		meta = append(meta, a.Year)
	}
	if a.Category != "" {
		meta = append(meta, a.Category)
	}
	if len(meta) > 0 {
		sb.WriteString(" (" + strings.Join(meta, ", ") + ")")
	}
	sb.WriteString(".")
	if desc := plainText(a.Description); desc != "" {
		sb.WriteString(" " + sentence(desc))
	}
	return sb.String()
}

// sentences joins bullet points into prose, terminating each one.
func sentences(items []string) string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if text := plainText(item); text != "" {
			out = append(out, sentence(text))
		}
	}
	return strings.Join(out, " ")
}

func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	switch s[len(s)-1] {
	case '.', '!', '?':
		return s
	}
	return s + "."
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return strings.TrimSpace(s)
}
