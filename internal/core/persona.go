package core

// Persona is a named response style: a tone prompt plus the synthesized
// voice used when the reply is spoken.
type Persona struct {
	Name  string
	Style string
	Voice string

	// SpokenReplies forces audio synthesis even for text-only input.
	SpokenReplies bool
}

const DefaultPersonaName = "upright"

// Personas mirrors the voice-profile set of the original service: two
// companion styles, a teasing executive, and a neutral default.
var Personas = map[string]Persona{
	"charming": {
		Name:  "charming",
		Style: "Respond in a charming and playful tone, using sweet expressions and light humor.",
		Voice: "nova",
	},
	"gentle": {
		Name:  "gentle",
		Style: "Respond in a gentle, caring tone, softly comforting and encouraging the user.",
		Voice: "shimmer",
	},
	"ceo": {
		Name:  "ceo",
		Style: "Respond in a confident, slightly teasing executive tone with warmth underneath.",
		Voice: "onyx",
	},
	"upright": {
		Name:  "upright",
		Style: "Respond in a straightforward, honest and spirited tone.",
		Voice: "echo",
	},
}

// PersonaByName resolves a persona, falling back to the default for
// unknown names.
func PersonaByName(name string) Persona {
	if p, ok := Personas[name]; ok {
		return p
	}
	return Personas[DefaultPersonaName]
}
