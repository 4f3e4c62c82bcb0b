package catalog

// Phase is a component's lifecycle label.
type Phase string

const (
	Backlog  Phase = "Backlog"
	Dev      Phase = "Dev"
	UXReview Phase = "UXReview"
	Stable   Phase = "Stable"
	Utility  Phase = "Utility"
)

// Phases lists the known lifecycle labels in lifecycle order.
var Phases = []Phase{Backlog, Dev, UXReview, Stable, Utility}

// Known reports whether p is one of the known lifecycle labels.
func (p Phase) Known() bool {
	for _, known := range Phases {
		if p == known {
			return true
		}
	}
	return false
}

// Usage is the example attached to a component.
type Usage struct {
	Code        string `json:"code" yaml:"code"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ComponentMeta is the catalog record of one public component.
type ComponentMeta struct {
	Name           string   `json:"name" yaml:"name"`
	Slug           string   `json:"slug" yaml:"slug"`
	File           string   `json:"file" yaml:"file"`
	Description    string   `json:"description" yaml:"description"`
	Dependencies   []string `json:"dependencies" yaml:"dependencies"`
	CSS            string   `json:"css" yaml:"css"`
	HasTouchTarget bool     `json:"hasTouchTarget" yaml:"hasTouchTarget"`
	Usage          *Usage   `json:"usage,omitempty" yaml:"usage,omitempty"`
	Phase          Phase    `json:"phase,omitempty" yaml:"phase,omitempty"`
	Generated      bool     `json:"generated" yaml:"generated"`
}

// DependsOn reports whether the component imports name.
func (m ComponentMeta) DependsOn(name string) bool {
	for _, dep := range m.Dependencies {
		if dep == name {
			return true
		}
	}
	return false
}
