// Package persona owns the health profile schema, the field-level merge used
// by extraction, and the system prompt composed from a profile.
package persona

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nyra-health/nyra-coach/internal/models"
)

// Kind is the semantic type of a persona attribute.
type Kind int

const (
	KindInt Kind = iota
	KindNumber
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindNumber:
		return "number"
	default:
		return "string"
	}
}

// Field describes one persona attribute. The table below is the only place
// attribute names are spelled out; prompts and storage derive from it.
type Field struct {
	Key   string
	Label string
	Kind  Kind
	Unit  string
	// Min and Max bound numeric values; values outside are rejected.
	Min, Max float64
	// Hint is the extraction guidance shown to the model, with example values.
	Hint string
	// Coaching marks the attributes the conversation prompt tracks as known/missing.
	Coaching bool

	ref func(p *models.Persona) any
}

// Fields is the fixed persona schema, in prompt order.
var Fields = []Field{
	{Key: "age", Label: "Age", Kind: KindInt, Min: 1, Max: 120, Hint: "years", Coaching: true,
		ref: func(p *models.Persona) any { return &p.Age }},
	{Key: "height_cm", Label: "Height", Kind: KindNumber, Unit: "cm", Min: 50, Max: 272,
		Hint: `height in centimeters, convert feet/inches first (5'10" is 178)`, Coaching: true,
		ref: func(p *models.Persona) any { return &p.HeightCM }},
	{Key: "weight_kg", Label: "Weight", Kind: KindNumber, Unit: "kg", Min: 2, Max: 650,
		Hint: "weight in kilograms, convert pounds first", Coaching: true,
		ref: func(p *models.Persona) any { return &p.WeightKG }},
	{Key: "gender", Label: "Gender", Kind: KindText, Hint: `"Male", "Female", "Other", "Prefer not to say"`, Coaching: true,
		ref: func(p *models.Persona) any { return &p.Gender }},
	{Key: "occupation", Label: "Occupation", Kind: KindText, Hint: "job or profession",
		ref: func(p *models.Persona) any { return &p.Occupation }},
	{Key: "wake_time", Label: "Wake Time", Kind: KindText, Hint: `time like "6:00 AM"`,
		ref: func(p *models.Persona) any { return &p.WakeTime }},
	{Key: "sleep_time", Label: "Sleep Time", Kind: KindText, Hint: `time like "11:00 PM"`,
		ref: func(p *models.Persona) any { return &p.SleepTime }},
	{Key: "activity_type", Label: "Activity Type", Kind: KindText, Hint: `e.g. "Gym", "Running", "Yoga", "Sports", "Sedentary", "Mixed"`, Coaching: true,
		ref: func(p *models.Persona) any { return &p.ActivityType }},
	{Key: "activity_frequency", Label: "Activity Frequency", Kind: KindText, Hint: `e.g. "5 days a week", "Daily", "Rarely"`, Coaching: true,
		ref: func(p *models.Persona) any { return &p.ActivityFrequency }},
	{Key: "activity_duration", Label: "Activity Duration", Kind: KindText, Hint: `e.g. "1 hour", "30 minutes"`, Coaching: true,
		ref: func(p *models.Persona) any { return &p.ActivityDuration }},
	{Key: "health_goal", Label: "Health Goal", Kind: KindText, Hint: `e.g. "Weight Loss", "Muscle Building", "General Fitness", "Endurance", "Flexibility"`, Coaching: true,
		ref: func(p *models.Persona) any { return &p.HealthGoal }},
	{Key: "diet_preference", Label: "Diet Preference", Kind: KindText, Hint: `e.g. "Vegetarian", "Vegan", "Non-Vegetarian", "Pescatarian", "Jain"`, Coaching: true,
		ref: func(p *models.Persona) any { return &p.DietPreference }},
	{Key: "medical_conditions", Label: "Medical Conditions", Kind: KindText, Hint: `comma-separated, e.g. "Diabetes, High Blood Pressure"`,
		ref: func(p *models.Persona) any { return &p.MedicalConditions }},
	{Key: "water_intake", Label: "Water Intake", Kind: KindText, Hint: `e.g. "2 liters", "8 glasses"`,
		ref: func(p *models.Persona) any { return &p.WaterIntake }},
	{Key: "stress_level", Label: "Stress Level", Kind: KindText, Hint: `"Low", "Medium", "High"`,
		ref: func(p *models.Persona) any { return &p.StressLevel }},
}

var fieldIndex = func() map[string]Field {
	m := make(map[string]Field, len(Fields))
	for _, f := range Fields {
		m[f.Key] = f
	}
	return m
}()

// LookupField returns the schema entry for key.
func LookupField(key string) (Field, bool) {
	f, ok := fieldIndex[key]
	return f, ok
}

// Value returns the attribute value stored on p (int, float64 or string).
func (f Field) Value(p *models.Persona) (any, bool) {
	if p == nil {
		return nil, false
	}
	switch r := f.ref(p).(type) {
	case **int:
		if *r == nil {
			return nil, false
		}
		return **r, true
	case **float64:
		if *r == nil {
			return nil, false
		}
		return **r, true
	case **string:
		if *r == nil {
			return nil, false
		}
		return **r, true
	}
	return nil, false
}

// Known reports whether p carries a truthy value for the field:
// non-zero numbers and non-blank strings.
func (f Field) Known(p *models.Persona) bool {
	v, ok := f.Value(p)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case int:
		return t != 0
	case float64:
		return t != 0
	case string:
		return strings.TrimSpace(t) != ""
	}
	return false
}

// Format renders a normalized value for prompts, with the unit if any.
func (f Field) Format(v any) string {
	var s string
	switch t := v.(type) {
	case int:
		s = strconv.Itoa(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		s = fmt.Sprint(t)
	}
	if f.Unit != "" {
		s += " " + f.Unit
	}
	return s
}

// ScanTarget returns a pointer to the persona attribute (**int, **float64 or
// **string) suitable for database row scanning.
func (f Field) ScanTarget(p *models.Persona) any {
	return f.ref(p)
}

// set stores an already-normalized value.
func (f Field) set(p *models.Persona, v any) {
	switch r := f.ref(p).(type) {
	case **int:
		n := v.(int)
		*r = &n
	case **float64:
		n := v.(float64)
		*r = &n
	case **string:
		s := v.(string)
		*r = &s
	}
}

var canonicalUUID = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// CanonicalUserID validates the 8-4-4-4-12 hex form and returns it lowercased.
func CanonicalUserID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !canonicalUUID.MatchString(raw) {
		return "", fmt.Errorf("%w: invalid user ID format", ErrValidation)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: invalid user ID format", ErrValidation)
	}
	return id.String(), nil
}

// SameUser compares two user ids, ignoring case when both are UUIDs.
func SameUser(a, b string) bool {
	ua, errA := uuid.Parse(a)
	ub, errB := uuid.Parse(b)
	if errA == nil && errB == nil {
		return ua == ub
	}
	return a == b
}
