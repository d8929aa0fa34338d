package persona

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/nyra-health/nyra-coach/internal/models"
)

// Patch maps schema keys to normalized values (int, float64 or string).
type Patch map[string]any

// Keys returns the patch keys in schema order.
func (p Patch) Keys() []string {
	return lo.FilterMap(Fields, func(f Field, _ int) (string, bool) {
		_, ok := p[f.Key]
		return f.Key, ok
	})
}

// FieldChange records one merge decision for the audit log.
type FieldChange struct {
	Field  string `json:"field"`
	Before any    `json:"before"`
	After  any    `json:"after"`
}

// Clean turns a loosely typed object into a Patch. Null and empty values,
// keys outside the schema, and values that cannot be coerced to the field's
// kind are dropped; the dropped keys are returned for logging.
func Clean(raw map[string]any) (Patch, []string) {
	patch := Patch{}
	var dropped []string
	for key, value := range raw {
		f, ok := LookupField(key)
		if !ok {
			dropped = append(dropped, key)
			continue
		}
		if value == nil {
			dropped = append(dropped, key)
			continue
		}
		if s, isStr := value.(string); isStr && strings.TrimSpace(s) == "" {
			dropped = append(dropped, key)
			continue
		}
		v, ok := coerce(f, value)
		if !ok {
			dropped = append(dropped, key)
			continue
		}
		patch[key] = v
	}
	return patch, dropped
}

var leadingNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

func coerce(f Field, value any) (any, bool) {
	switch f.Kind {
	case KindInt, KindNumber:
		var n float64
		switch t := value.(type) {
		case float64:
			n = t
		case int:
			n = float64(t)
		case string:
			m := leadingNumber.FindString(t)
			if m == "" {
				return nil, false
			}
			parsed, err := strconv.ParseFloat(m, 64)
			if err != nil {
				return nil, false
			}
			n = parsed
		default:
			return nil, false
		}
		if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
			return nil, false
		}
		if (f.Min > 0 && n < f.Min) || (f.Max > 0 && n > f.Max) {
			return nil, false
		}
		if f.Kind == KindInt {
			return int(math.Round(n)), true
		}
		return n, true
	default:
		switch t := value.(type) {
		case string:
			return strings.TrimSpace(t), true
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), true
		case int:
			return strconv.Itoa(t), true
		case []any:
			parts := lo.FilterMap(t, func(item any, _ int) (string, bool) {
				s, ok := item.(string)
				s = strings.TrimSpace(s)
				return s, ok && s != ""
			})
			if len(parts) == 0 {
				return nil, false
			}
			return strings.Join(parts, ", "), true
		}
		return nil, false
	}
}

// Merge applies patch on top of current. Every patched field overwrites the
// current value; untouched fields are kept. The returned persona is a copy
// owned by userID.
func Merge(current *models.Persona, userID string, patch Patch) (models.Persona, []FieldChange) {
	var merged models.Persona
	if current != nil {
		merged = *current
	}
	merged.UserID = userID

	var changes []FieldChange
	for _, key := range patch.Keys() {
		f := fieldIndex[key]
		before, _ := f.Value(&merged)
		after := patch[key]
		f.set(&merged, after)
		changes = append(changes, FieldChange{Field: key, Before: before, After: after})
	}
	return merged, changes
}

// FromMap builds a persona from a loosely typed client object. Attributes go
// through Clean; id and user_id are kept when they are strings.
func FromMap(raw map[string]any) *models.Persona {
	if raw == nil {
		return nil
	}
	patch, _ := Clean(raw)
	userID, _ := raw["user_id"].(string)
	p, _ := Merge(nil, userID, patch)
	if id, ok := raw["id"].(string); ok {
		p.ID = id
	}
	return &p
}
