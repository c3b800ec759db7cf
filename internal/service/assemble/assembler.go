// Package assemble merges persona, profile, memory, retrieval, and the
// current query into a single system prompt under a token budget.
package assemble

import (
	"fmt"
	"strings"

	"github.com/alexyujiuqiao/IM/internal/core"
)

const personaPreamble = "You are a helpful AI assistant with access to the user's conversation memory and related context."

// Input carries everything the assembler may include in the payload.
type Input struct {
	Persona  core.Persona
	Snapshot core.MemorySnapshot
	Query    core.RAGQuery
}

// Assembler builds the generation payload. Sections are ranked: the
// persona header, the profile, and the current query always survive;
// recent turns, retrieved passages, and the summary are trimmed in that
// order when the budget is tight.
type Assembler struct {
	budget int
	count  TokenCounter
}

func New(budget int, counter TokenCounter) *Assembler {
	if budget <= 0 {
		budget = 3000
	}
	if counter == nil {
		counter = TokenCount
	}
	return &Assembler{budget: budget, count: counter}
}

// Assemble renders the payload. It never fails and never drops the
// persona, profile, or query sections regardless of budget pressure.
func (a *Assembler) Assemble(in Input) string {
	persona := personaSection(in.Persona)
	profile := profileSection(in.Snapshot.Profile)
	query := querySection(in.Query)
	summary := in.Snapshot.Summary

	recentLines := turnLines(in.Snapshot.Recent)
	passageLines := passageList(in.Query.Retrieved)

	render := func() string {
		return joinSections(
			persona,
			profile,
			headed("Conversation summary:", summary),
			headedLines("Relevant context:", passageLines),
			headedLines("Recent conversation:", recentLines),
			query,
		)
	}

	// Oldest recent turns go first.
	payload := render()
	for a.count(payload) > a.budget && len(recentLines) > 0 {
		recentLines = recentLines[1:]
		payload = render()
	}
	for a.count(payload) > a.budget && len(passageLines) > 0 {
		passageLines = passageLines[1:]
		payload = render()
	}
	for a.count(payload) > a.budget && summary != "" {
		summary = shrinkHead(summary)
		payload = render()
	}

	return payload
}

func personaSection(p core.Persona) string {
	if p.Style == "" {
		return personaPreamble
	}
	return personaPreamble + "\n" + p.Style
}

func profileSection(p core.UserProfile) string {
	if p.IsEmpty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("What you know about the user:")
	if p.Name != "" {
		fmt.Fprintf(&b, "\n- Name: %s", p.Name)
	}
	if p.Profession != "" {
		fmt.Fprintf(&b, "\n- Profession: %s", p.Profession)
	}
	if len(p.Hobbies) > 0 {
		fmt.Fprintf(&b, "\n- Hobbies: %s", strings.Join(p.Hobbies, ", "))
	}
	if len(p.Traits) > 0 {
		fmt.Fprintf(&b, "\n- Traits: %s", strings.Join(p.Traits, ", "))
	}
	if p.InteractionCount > 0 {
		fmt.Fprintf(&b, "\n- Past interactions: %d", p.InteractionCount)
	}
	return b.String()
}

func querySection(q core.RAGQuery) string {
	text := q.Rewritten
	if strings.TrimSpace(text) == "" {
		text = q.Original
	}
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return "Current user message:\n" + text
}

func turnLines(turns []core.Turn) []string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		if t.Content == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", t.Role, t.Content))
	}
	return lines
}

func passageList(passages []core.Passage) []string {
	lines := make([]string, 0, len(passages))
	for _, p := range passages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		lines = append(lines, "- "+p.Text)
	}
	return lines
}

func headed(header, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return header + "\n" + body
}

func headedLines(header string, lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return header + "\n" + strings.Join(lines, "\n")
}

func joinSections(sections ...string) string {
	kept := make([]string, 0, len(sections))
	for _, s := range sections {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n\n")
}

// shrinkHead removes the leading quarter of the summary, whole runes at
// a time, so repeated calls converge to empty.
func shrinkHead(s string) string {
	runes := []rune(s)
	cut := len(runes) / 4
	if cut == 0 {
		cut = len(runes)
	}
	return strings.TrimSpace(string(runes[cut:]))
}
