package advisor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutriadvisor/internal/profile"
)

func sampleProfile() profile.UserProfile {
	return profile.UserProfile{
		Age:               30,
		Gender:            "Male",
		Height:            `5'10"`,
		Weight:            "160 lbs",
		ActivityLevel:     "Moderately Active",
		Goals:             []string{"Weight Loss"},
		MedicalConditions: "None reported",
		Allergies:         "None reported",
		Location:          "No specific factors",
		Budget:            "Moderate",
	}
}

func TestBuildTasksProducesFixedChain(t *testing.T) {
	tasks := BuildTasks(DefaultRoster(), sampleProfile())
	require.Len(t, tasks, 3)

	demographics, medical, plan := tasks[0], tasks[1], tasks[2]

	assert.Empty(t, demographics.Context)
	assert.Equal(t, []*Task{demographics}, medical.Context)
	assert.Equal(t, []*Task{demographics, medical}, plan.Context)
}

func TestBuildTasksChainInvariantAcrossInputs(t *testing.T) {
	other := sampleProfile()
	other.Age = 77
	other.Goals = []string{"Muscle Building", "Disease Management"}
	other.MedicalConditions = "Hypertension"

	for _, p := range []profile.UserProfile{sampleProfile(), other} {
		tasks := BuildTasks(DefaultRoster(), p)
		require.Len(t, tasks, 3)
		assert.Equal(t, []*Task{tasks[0]}, tasks[1].Context)
		assert.Equal(t, []*Task{tasks[0], tasks[1]}, tasks[2].Context)
	}
}

func TestBuildTasksInterpolatesProfileIntoFirstTaskOnly(t *testing.T) {
	tasks := BuildTasks(DefaultRoster(), sampleProfile())
	require.Len(t, tasks, 3)

	first := tasks[0].Description
	assert.Contains(t, first, "Age: 30")
	assert.Contains(t, first, "Weight Loss")
	assert.Contains(t, first, "Moderately Active")

	for _, task := range tasks[1:] {
		assert.NotContains(t, task.Description, "Age: 30")
		assert.NotContains(t, task.Description, "Weight Loss")
		assert.NotContains(t, task.Description, "Moderately Active")
	}
}

func TestBuildTasksAgentAssignment(t *testing.T) {
	r := DefaultRoster()
	tasks := BuildTasks(r, sampleProfile())

	assert.Equal(t, r.Nutritionist.Role, tasks[0].Agent.Role)
	assert.Equal(t, r.MedicalSpecialist.Role, tasks[1].Agent.Role)
	assert.Equal(t, r.DietPlanner.Role, tasks[2].Agent.Role)

	assert.True(t, tasks[0].Agent.Search)
	assert.True(t, tasks[1].Agent.Search)
	assert.False(t, tasks[2].Agent.Search)
}

func TestBuildTasksSecondAndThirdUseHealthAndLocationFields(t *testing.T) {
	p := sampleProfile()
	p.MedicalConditions = "Hypothyroidism"
	p.Allergies = "Peanuts"
	p.Budget = "Very Limited"
	p.Location = "Lisbon, Portugal"

	tasks := BuildTasks(DefaultRoster(), p)

	assert.True(t, strings.Contains(tasks[1].Description, "Hypothyroidism"))
	assert.True(t, strings.Contains(tasks[1].Description, "Peanuts"))
	assert.True(t, strings.Contains(tasks[2].Description, "Very Limited"))
	assert.True(t, strings.Contains(tasks[2].Description, "Lisbon, Portugal"))
}
