// Package types provides type definitions for structured data used throughout the portfolio assistant.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Portfolio is the Fact Set describing the site owner. It is read-only once loaded.
type Portfolio struct {
	Profile        Profile             `json:"profile" yaml:"profile"`
	Skills         map[string][]string `json:"skills,omitempty" yaml:"skills,omitempty"`
	Experience     []Experience        `json:"experience,omitempty" yaml:"experience,omitempty" validate:"dive"`
	Projects       []Project           `json:"projects,omitempty" yaml:"projects,omitempty" validate:"dive"`
	Education      []Education         `json:"education,omitempty" yaml:"education,omitempty" validate:"dive"`
	Certifications []Certification     `json:"certifications,omitempty" yaml:"certifications,omitempty" validate:"dive"`
	Achievements   []Achievement       `json:"achievements,omitempty" yaml:"achievements,omitempty" validate:"dive"`
}

// Profile holds the owner's headline facts.
type Profile struct {
	Name     string `json:"name" yaml:"name" validate:"required"`
	Title    string `json:"title" yaml:"title" validate:"required"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
	Summary  string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Tagline  string `json:"tagline,omitempty" yaml:"tagline,omitempty"`
	Email    string `json:"email,omitempty" yaml:"email,omitempty" validate:"omitempty,email"`
	Website  string `json:"website,omitempty" yaml:"website,omitempty" validate:"omitempty,url"`
}

// Experience is a single role held by the owner.
type Experience struct {
	Role         string   `json:"role" yaml:"role" validate:"required"`
	Company      string   `json:"company" yaml:"company" validate:"required"`
	Type         string   `json:"type,omitempty" yaml:"type,omitempty"`
	Period       string   `json:"period" yaml:"period" validate:"required"`
	Location     string   `json:"location,omitempty" yaml:"location,omitempty"`
	Achievements []string `json:"achievements,omitempty" yaml:"achievements,omitempty"`
	Technologies []string `json:"technologies,omitempty" yaml:"technologies,omitempty"`
}

// Project is a portfolio project.
type Project struct {
	Name        string   `json:"name" yaml:"name" validate:"required"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
	Year        string   `json:"year,omitempty" yaml:"year,omitempty"`
	Status      string   `json:"status,omitempty" yaml:"status,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Features    []string `json:"features,omitempty" yaml:"features,omitempty"`
	Stack       []string `json:"stack,omitempty" yaml:"stack,omitempty"`
	URL         string   `json:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url"`
}

// Education is a degree or program.
type Education struct {
	School     string   `json:"school" yaml:"school" validate:"required"`
	Credential string   `json:"credential" yaml:"credential" validate:"required"`
	Period     string   `json:"period,omitempty" yaml:"period,omitempty"`
	GPA        string   `json:"gpa,omitempty" yaml:"gpa,omitempty"`
	Courses    []string `json:"courses,omitempty" yaml:"courses,omitempty"`
}

// Certification is a professional certificate.
type Certification struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	Issuer      string `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	Year        string `json:"year,omitempty" yaml:"year,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Achievement is an award or notable accomplishment.
type Achievement struct {
	Title       string `json:"title" yaml:"title" validate:"required"`
	Year        string `json:"year,omitempty" yaml:"year,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ProjectNames returns the project names in declaration order.
func (p *Portfolio) ProjectNames() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.Projects))
	for _, proj := range p.Projects {
		if proj.Name != "" {
			names = append(names, proj.Name)
		}
	}
	return names
}
