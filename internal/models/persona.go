package models

import "time"

// Persona is the per-user health and lifestyle record kept in public.personas.
// Every attribute is optional and independently overwritable.
type Persona struct {
	ID     string `json:"id,omitempty" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	Age      *int     `json:"age,omitempty" db:"age"`
	HeightCM *float64 `json:"height_cm,omitempty" db:"height_cm"`
	WeightKG *float64 `json:"weight_kg,omitempty" db:"weight_kg"`

	Gender            *string `json:"gender,omitempty" db:"gender"`
	Occupation        *string `json:"occupation,omitempty" db:"occupation"`
	WakeTime          *string `json:"wake_time,omitempty" db:"wake_time"`
	SleepTime         *string `json:"sleep_time,omitempty" db:"sleep_time"`
	ActivityType      *string `json:"activity_type,omitempty" db:"activity_type"`
	ActivityFrequency *string `json:"activity_frequency,omitempty" db:"activity_frequency"`
	ActivityDuration  *string `json:"activity_duration,omitempty" db:"activity_duration"`
	HealthGoal        *string `json:"health_goal,omitempty" db:"health_goal"`
	DietPreference    *string `json:"diet_preference,omitempty" db:"diet_preference"`
	MedicalConditions *string `json:"medical_conditions,omitempty" db:"medical_conditions"`
	WaterIntake       *string `json:"water_intake,omitempty" db:"water_intake"`
	StressLevel       *string `json:"stress_level,omitempty" db:"stress_level"`

	CreatedAt *time.Time `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}
