package profile

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Experience is one position in the candidate's history.
type Experience struct {
	Title      string   `yaml:"title" json:"title"`
	Company    string   `yaml:"company" json:"company"`
	Period     string   `yaml:"period" json:"period"`
	Highlights []string `yaml:"highlights" json:"highlights"`
}

// Profile is the candidate profile used for matching and document generation.
// It is not modified after Load or Default return it.
type Profile struct {
	Name       string       `yaml:"name" json:"name"`
	Title      string       `yaml:"title" json:"title"`
	Email      string       `yaml:"email" json:"email"`
	Phone      string       `yaml:"phone" json:"phone"`
	LinkedIn   string       `yaml:"linkedin" json:"linkedin"`
	GitHub     string       `yaml:"github" json:"github"`
	Summary    string       `yaml:"summary" json:"summary"`
	Skills     []string     `yaml:"skills" json:"skills"`
	Experience []Experience `yaml:"experience" json:"experience"`
}

// Default returns the built-in profile.
func Default() *Profile {
	return &Profile{
		Name:     "Alex Morgan",
		Title:    "Cloud AI Architect",
		Email:    "alex.morgan@example.com",
		LinkedIn: "https://www.linkedin.com/in/alex-morgan",
		GitHub:   "https://github.com/alex-morgan",
		Summary: "Cloud AI Architect with 18+ years of experience in enterprise infrastructure, " +
			"AI/ML platforms, and DevOps transformation. Expert in Kubernetes, GPU infrastructure, " +
			"and building scalable cloud-native platforms. Proven track record of leading large-scale " +
			"migrations and implementing platform engineering practices.",
		Skills: []string{
			"Cloud Architecture (AWS, Azure, GCP)",
			"Kubernetes & Container Orchestration",
			"GPU Infrastructure & AI/ML Platforms",
			"Terraform & Infrastructure as Code",
			"GitOps (ArgoCD, Flux)",
			"Prometheus, Grafana, Datadog",
			"Site Reliability Engineering",
			"Platform Engineering",
			"DevSecOps & Compliance (SOC2, HIPAA)",
			"Team Leadership & Mentoring",
			"Python, Go, Shell Scripting",
			"CI/CD (GitHub Actions, Jenkins, GitLab)",
		},
		Experience: []Experience{
			{
				Title:   "Cloud Architect",
				Company: "Harbor Health Systems",
				Period:  "2021 - Present",
				Highlights: []string{
					"Led Azure cloud migration for enterprise healthcare platform",
					"Implemented Kubernetes platform serving 500+ microservices",
					"Reduced infrastructure costs by 40% through optimization",
				},
			},
			{
				Title:   "Cloud Senior Engineer",
				Company: "Northwind Insurance",
				Period:  "2019 - 2021",
				Highlights: []string{
					"Designed multi-cloud architecture for insurance applications",
					"Built CI/CD pipelines reducing deployment time by 70%",
				},
			},
		},
	}
}

// Load reads a YAML profile from path. Fields missing from the file are taken from
// Default. An empty path returns the default profile.
func Load(path string) (*Profile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile %q: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes a YAML profile and fills omitted fields from Default.
func Parse(data []byte) (*Profile, error) {
	var override Profile
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}

	return override.withDefaults(), nil
}

func (p Profile) withDefaults() *Profile {
	def := Default()
	out := &Profile{
		Name:       pick(p.Name, def.Name),
		Title:      pick(p.Title, def.Title),
		Email:      pick(p.Email, def.Email),
		Phone:      pick(p.Phone, def.Phone),
		LinkedIn:   pick(p.LinkedIn, def.LinkedIn),
		GitHub:     pick(p.GitHub, def.GitHub),
		Summary:    pick(p.Summary, def.Summary),
		Skills:     slices.Clone(p.Skills),
		Experience: slices.Clone(p.Experience),
	}

	// nil means "not set"; an explicit empty list in the file is kept.
	if p.Skills == nil {
		out.Skills = def.Skills
	}
	if p.Experience == nil {
		out.Experience = def.Experience
	}

	return out
}

func pick(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

// TopSkills returns up to n first skills.
func (p *Profile) TopSkills(n int) []string {
	if n > len(p.Skills) || n < 0 {
		n = len(p.Skills)
	}
	return slices.Clone(p.Skills[:n])
}

// Highlights returns the highlights of every experience entry in order.
func (p *Profile) Highlights() []string {
	var out []string
	for _, exp := range p.Experience {
		out = append(out, exp.Highlights...)
	}
	return out
}
