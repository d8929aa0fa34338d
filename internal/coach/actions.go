package coach

import "github.com/nyra-health/nyra-coach/internal/models"

// Action is a suggested next-step button rendered by the client.
type Action struct {
	Label  string `json:"label"`
	Intent string `json:"intent"`
}

var actionTable = map[string][]Action{
	"diet_plan": {
		{Label: "7-day diet plan", Intent: "diet_plan"},
		{Label: "Calorie check", Intent: "calorie_check"},
		{Label: "Indian food options", Intent: "diet_indian"},
	},
	"muscle_building": {
		{Label: "Workout split", Intent: "workout_plan"},
		{Label: "Protein sources", Intent: "protein_sources"},
	},
	"calorie_check": {
		{Label: "Log today's meal", Intent: "track_day"},
		{Label: "Next meal suggestion", Intent: "next_meal"},
	},
	"track_day": {
		{Label: "Log another meal", Intent: "track_day"},
		{Label: "Water intake check", Intent: "water_check"},
	},
}

func init() {
	actionTable["diet"] = actionTable["diet_plan"]
}

// ActionsFor returns the suggestion buttons for intent. Nothing is suggested
// until the persona carries both an age and a health goal.
func ActionsFor(intent string, p *models.Persona) []Action {
	if intent == "" || p == nil {
		return []Action{}
	}
	if p.Age == nil || *p.Age == 0 || p.HealthGoal == nil || *p.HealthGoal == "" {
		return []Action{}
	}
	actions, ok := actionTable[intent]
	if !ok {
		return []Action{}
	}
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}
