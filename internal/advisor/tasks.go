package advisor

import (
	"fmt"

	"nutriadvisor/internal/profile"
)

// Task is one unit of pipeline work: an instruction text bound to an agent,
// plus the prior tasks whose outputs are injected as context when it runs.
type Task struct {
	Name           string
	Description    string
	Agent          Agent
	Context        []*Task
	ExpectedOutput string
}

// BuildTasks produces the three pipeline tasks for one profile, in
// execution order. The context chain is fixed: the medical analysis sees
// the demographics research, the final plan sees both.
func BuildTasks(r Roster, p profile.UserProfile) []*Task {
	demographics := &Task{
		Name:  "demographics_research",
		Agent: r.Nutritionist,
		Description: fmt.Sprintf(`Research nutritional needs for an individual with the following demographics:
- Age: %d
- Gender: %s
- Height: %s
- Weight: %s
- Activity Level: %s
- Goals: %s

Provide detailed nutritional requirements including:
1. Caloric needs (basal and adjusted for activity)
2. Macronutrient distribution (proteins, carbs, fats)
3. Key micronutrients particularly important for this demographic
4. Hydration requirements
5. Meal timing and frequency recommendations`,
			p.Age, p.Gender, p.Height, p.Weight, p.ActivityLevel, p.GoalsLine()),
		ExpectedOutput: "A comprehensive nutritional profile with scientific rationale",
	}

	medical := &Task{
		Name:    "medical_analysis",
		Agent:   r.MedicalSpecialist,
		Context: []*Task{demographics},
		Description: fmt.Sprintf(`Analyze the following medical conditions and medications, then provide dietary modifications:
- Medical Conditions: %s
- Allergies/Intolerances: %s

Consider the baseline nutritional profile and provide:
1. Specific nutrients to increase or limit based on each condition
2. Food-medication interactions to avoid
3. Potential nutrient deficiencies associated with these conditions/medications
4. Foods that may help manage symptoms or improve outcomes
5. Foods to strictly avoid`,
			p.MedicalConditions, p.Allergies),
		ExpectedOutput: "A detailed analysis of medical nutrition therapy adjustments",
	}

	plan := &Task{
		Name:    "diet_plan",
		Agent:   r.DietPlanner,
		Context: []*Task{demographics, medical},
		Description: fmt.Sprintf(`Create a detailed, practical diet plan incorporating all information:
- Budget Constraints: %s
- Location's geography / Local Staples: %s

Develop a comprehensive nutrition plan that includes:
1. Specific foods to eat daily, weekly, and occasionally with portion sizes
2. A 7-day meal plan with specific meals and recipes in tabular format
3. Meal preparation tips and simple recipes
4. Eating out guidelines and suggested restaurant options/orders
5. Supplement recommendations if necessary (with scientific justification)
6. Hydration schedule and recommended beverages
7. How to monitor progress and potential adjustments over time`,
			p.Budget, p.Location),
		ExpectedOutput: "A comprehensive, practical, and personalized nutrition plan",
	}

	return []*Task{demographics, medical, plan}
}
