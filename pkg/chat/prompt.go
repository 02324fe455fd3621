package chat

import (
	"fmt"
	"strings"

	"lovelink/pkg/catalog"
	"lovelink/pkg/relationship"
)

// Persona describes the companion character
type Persona struct {
	Name   string   `yaml:"name"`
	Age    int      `yaml:"age"`
	Traits []string `yaml:"traits"`
}

// DefaultPersona is used when the config names none
var DefaultPersona = Persona{
	Name: "Hana",
	Age:  21,
	Traits: []string{
		"Warm and a little shy at first, then playful once comfortable",
		"Loves cafes, old bookstores and taking photos of the sky",
		"Honest about her feelings, sometimes to the point of getting flustered",
		"Remembers small details people tell her",
	},
}

const systemPromptTemplate = `
You are %s, a %d-year-old. You are texting with someone you're getting to know.

Personality:
%s

Chat Style:
- Keep messages SHORT and natural, like you're actually texting
- mostly lowercase, casual typing
- ask questions, you're curious about them
- no roleplay actions like *does something*

%s
%s`

// BuildSystemPrompt renders the persona, the stage's tone guidance and, when a
// date is running, where the two of you are
func BuildSystemPrompt(p Persona, stage relationship.Stage, loc *catalog.Location) string {
	var traits strings.Builder
	for _, t := range p.Traits {
		traits.WriteString("- ")
		traits.WriteString(t)
		traits.WriteString("\n")
	}

	date := ""
	if loc != nil {
		date = fmt.Sprintf(`[Current Date]
You're on a date at the %s (%s). Talk about what's around you there and enjoy the moment together.
`, loc.DisplayName, loc.Category)
	}

	return fmt.Sprintf(systemPromptTemplate,
		p.Name, p.Age,
		strings.TrimRight(traits.String(), "\n"),
		stage.Instruction,
		date,
	)
}
