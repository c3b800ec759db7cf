package assemble

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alexyujiuqiao/IM/internal/core"
)

func sampleInput() Input {
	return Input{
		Persona: core.Personas["gentle"],
		Snapshot: core.MemorySnapshot{
			Summary: "The user has been planning a trip to Japan and asked about rail passes.",
			Profile: core.UserProfile{
				UserID:           "u1",
				Name:             "Dana",
				Profession:       "photographer",
				Hobbies:          []string{"hiking", "film"},
				InteractionCount: 7,
			},
			Recent: []core.Turn{
				{Role: core.RoleUser, Content: "what lens should I bring?"},
				{Role: core.RoleAssistant, Content: "A 35mm prime travels well."},
			},
		},
		Query: core.RAGQuery{
			Original:  "how about for temples?",
			Rewritten: "What lens should Dana bring for photographing temples in Japan?",
			Retrieved: []core.Passage{
				{Text: "Dana prefers shooting in natural light.", Score: 0.91},
				{Text: "Dana owns a Fujifilm X-T5.", Score: 0.84},
			},
		},
	}
}

func TestAssembleIncludesAllSections(t *testing.T) {
	a := New(10000, CharCount)
	got := a.Assemble(sampleInput())

	assert.Contains(t, got, "helpful AI assistant")
	assert.Contains(t, got, "Name: Dana")
	assert.Contains(t, got, "Past interactions: 7")
	assert.Contains(t, got, "rail passes")
	assert.Contains(t, got, "natural light")
	assert.Contains(t, got, "35mm prime")
	assert.Contains(t, got, "photographing temples in Japan")
}

func TestAssembleOmitsEmptySections(t *testing.T) {
	a := New(10000, CharCount)
	got := a.Assemble(Input{
		Persona: core.PersonaByName("upright"),
		Query:   core.RAGQuery{Original: "hello"},
	})

	assert.NotContains(t, got, "Conversation summary:")
	assert.NotContains(t, got, "Relevant context:")
	assert.NotContains(t, got, "Recent conversation:")
	assert.NotContains(t, got, "What you know about the user:")
	assert.Contains(t, got, "Current user message:\nhello")
}

func TestAssembleRespectsBudget(t *testing.T) {
	in := sampleInput()
	budget := 450

	a := New(budget, CharCount)
	got := a.Assemble(in)

	assert.LessOrEqual(t, CharCount(got), budget)
	assert.Contains(t, got, "Name: Dana", "profile survives trimming")
	assert.Contains(t, got, "photographing temples in Japan", "query survives trimming")
}

func TestAssembleTrimsRecentBeforePassages(t *testing.T) {
	in := sampleInput()
	// A budget that forces dropping the recent turns but leaves room
	// for at least one retrieved passage.
	a := New(500, CharCount)
	got := a.Assemble(in)

	if strings.Contains(got, "35mm prime") {
		// Recent turns fit, so nothing below them may have been cut.
		assert.Contains(t, got, "natural light")
	} else {
		assert.NotContains(t, got, "what lens should I bring?")
	}
	assert.Contains(t, got, "Current user message:")
}

func TestAssembleNeverDropsMandatorySectionsUnderTinyBudget(t *testing.T) {
	a := New(10, CharCount)
	got := a.Assemble(sampleInput())

	assert.Contains(t, got, "helpful AI assistant")
	assert.Contains(t, got, "Name: Dana")
	assert.Contains(t, got, "Current user message:")
	assert.NotContains(t, got, "rail passes", "summary is sacrificed first")
}

func TestQuerySectionFallsBackToOriginal(t *testing.T) {
	got := querySection(core.RAGQuery{Original: "plain question", Rewritten: "  "})
	assert.Equal(t, "Current user message:\nplain question", got)
}

func TestShrinkHeadConverges(t *testing.T) {
	s := "a long summary that must eventually disappear entirely"
	for i := 0; i < 100 && s != ""; i++ {
		next := shrinkHead(s)
		assert.Less(t, len(next), len(s))
		s = next
	}
	assert.Empty(t, s)
}
