/*
Package advisor owns the three-stage nutrition pipeline: the agent roster,
the task builder that interpolates a user profile into the three task
descriptions, and the sequential crew that executes them against the
language model.
*/
package advisor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Agent is a role-bound persona the model assumes for one task. Search
// decides whether the web_search tool is declared on the agent's calls;
// AllowDelegation marks the agent as entitled to lean on the other
// specialists' findings.
type Agent struct {
	Role            string `yaml:"role"`
	Goal            string `yaml:"goal"`
	Backstory       string `yaml:"backstory"`
	Search          bool   `yaml:"search"`
	AllowDelegation bool   `yaml:"allow_delegation"`
}

// Roster holds the three fixed agents of the pipeline.
type Roster struct {
	Nutritionist      Agent `yaml:"nutritionist"`
	MedicalSpecialist Agent `yaml:"medical_specialist"`
	DietPlanner       Agent `yaml:"diet_planner"`
}

// DefaultRoster returns the built-in agent definitions.
func DefaultRoster() Roster {
	return Roster{
		Nutritionist: Agent{
			Role: "Nutrition Specialist",
			Goal: "Research and develop personalized nutritional recommendations based on scientific evidence",
			Backstory: "You are a highly qualified nutritionist with expertise in therapeutic diets, " +
				"nutrient interactions, and dietary requirements across different health conditions. " +
				"Your recommendations are always backed by peer-reviewed research.",
			Search:          true,
			AllowDelegation: true,
		},
		MedicalSpecialist: Agent{
			Role: "Medical Nutrition Therapist",
			Goal: "Analyze medical conditions and provide appropriate dietary modifications",
			Backstory: "With dual training in medicine and nutrition, you specialize in managing " +
				"nutrition-related aspects of various medical conditions. You understand " +
				"medication-food interactions and how to optimize nutrition within medical constraints.",
			Search: true,
		},
		DietPlanner: Agent{
			Role: "Therapeutic Diet Planner",
			Goal: "Create detailed, practical and enjoyable meal plans tailored to individual needs",
			Backstory: "You excel at transforming clinical nutrition requirements into delicious, " +
				"practical eating plans. You have extensive knowledge of food preparation, " +
				"nutrient preservation, and food combinations that optimize both health and enjoyment.",
		},
	}
}

// LoadRoster reads agent definitions from a YAML file. Fields left empty in
// the file keep their built-in values, so a file may override just one
// persona's text.
func LoadRoster(path string) (Roster, error) {
	roster := DefaultRoster()

	data, err := os.ReadFile(path)
	if err != nil {
		return roster, fmt.Errorf("failed to read roster file: %w", err)
	}

	var override Roster
	if err := yaml.Unmarshal(data, &override); err != nil {
		return roster, fmt.Errorf("failed to parse roster file: %w", err)
	}

	mergeAgent(&roster.Nutritionist, override.Nutritionist)
	mergeAgent(&roster.MedicalSpecialist, override.MedicalSpecialist)
	mergeAgent(&roster.DietPlanner, override.DietPlanner)

	return roster, nil
}

// mergeAgent copies non-empty text fields from the override. The tool and
// delegation flags are part of the pipeline's wiring and stay fixed.
func mergeAgent(dst *Agent, src Agent) {
	if src.Role != "" {
		dst.Role = src.Role
	}
	if src.Goal != "" {
		dst.Goal = src.Goal
	}
	if src.Backstory != "" {
		dst.Backstory = src.Backstory
	}
}

// systemInstruction renders the persona text the model receives for this
// agent's tasks.
func (a Agent) systemInstruction() string {
	s := fmt.Sprintf("You are %s.\n%s\n\nYour goal: %s", a.Role, a.Backstory, a.Goal)
	if a.AllowDelegation {
		s += "\n\nYou may build on the findings of the other specialists provided as context."
	}
	return s
}
