package persona

import (
	_ "embed"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/nyra-health/nyra-coach/internal/models"
)

//go:embed rulebook.md
var rulebook string

//go:embed intents.yaml
var intentsYAML []byte

var intentInstructions = func() map[string]string {
	m := map[string]string{}
	if err := yaml.Unmarshal(intentsYAML, &m); err != nil {
		panic("persona: invalid intents.yaml: " + err.Error())
	}
	return m
}()

// Rulebook returns the fixed persona and tone rules.
func Rulebook() string {
	return strings.TrimSpace(rulebook)
}

// IntentInstruction returns the targeted instruction for a recognized intent tag.
func IntentInstruction(intent string) (string, bool) {
	s, ok := intentInstructions[intent]
	return strings.TrimSpace(s), ok
}

// CoachingFields returns the attributes tracked as known/missing in the
// conversation prompt.
func CoachingFields() []Field {
	return lo.Filter(Fields, func(f Field, _ int) bool { return f.Coaching })
}

// Partition splits the coaching fields into those p knows and those it lacks.
// A nil persona knows nothing.
func Partition(p *models.Persona) (known, missing []Field) {
	for _, f := range CoachingFields() {
		if f.Known(p) {
			known = append(known, f)
		} else {
			missing = append(missing, f)
		}
	}
	return known, missing
}

const (
	knownHeader   = "KNOWN USER PROFILE (DO NOT ask for these again, use them for personalization):"
	missingHeader = "MISSING INFORMATION (ask ONLY for these, and only when relevant):"
	noneMissing   = "None - you have all key information!"
	emptyHeader   = "NO PROFILE INFORMATION COLLECTED YET."
)

// Compose builds the system prompt for a conversational turn: the rulebook,
// then the profile block, then the intent block. The output depends only on
// its inputs.
func Compose(p *models.Persona, intent string) string {
	sections := []string{Rulebook(), profileBlock(p)}
	if instruction, ok := IntentInstruction(intent); ok {
		sections = append(sections, instruction)
	}
	return strings.Join(sections, "\n\n")
}

func profileBlock(p *models.Persona) string {
	known, missing := Partition(p)

	var b strings.Builder
	if len(known) == 0 {
		b.WriteString(emptyHeader)
		b.WriteString("\nIf the user asks for a plan, collect these naturally, one at a time:\n")
		for _, f := range missing {
			b.WriteString("- " + strings.ToLower(f.Label) + "\n")
		}
		return strings.TrimRight(b.String(), "\n")
	}

	b.WriteString(knownHeader + "\n")
	for _, f := range known {
		v, _ := f.Value(p)
		b.WriteString("- " + f.Label + ": " + f.Format(v) + "\n")
	}
	b.WriteString("\n" + missingHeader + "\n")
	if len(missing) == 0 {
		b.WriteString(noneMissing + "\n")
	}
	for _, f := range missing {
		b.WriteString("- " + strings.ToLower(f.Label) + "\n")
	}
	b.WriteString("\nThe user has already shared the details above. Reference them naturally.\n")
	b.WriteString(`If the user explicitly restates or corrects a detail, acknowledge and confirm it, e.g. "Got it! So you're 5'10, if this changes just let me know!"`)
	return b.String()
}
