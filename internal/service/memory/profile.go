package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alexyujiuqiao/IM/internal/core"
)

const profileSystemPrompt = `You are a profile extraction assistant. Read the conversation excerpt and extract stable facts about the user. Respond with a single JSON object and nothing else, using exactly these keys:
{"name": "", "profession": "", "hobbies": [], "personality_traits": []}
Leave a field empty when the excerpt does not mention it. Never invent facts.`

type extractedProfile struct {
	Name       string   `json:"name"`
	Profession string   `json:"profession"`
	Hobbies    []string `json:"hobbies"`
	Traits     []string `json:"personality_traits"`
}

// extractProfile asks the model for profile attributes inferable from
// the newly ingested turns. Returns nil when there is nothing to work
// with.
func (s *Service) extractProfile(ctx context.Context, turns []core.Turn) (*extractedProfile, error) {
	var user []core.Turn
	for _, t := range turns {
		if t.Role == core.RoleUser && t.Content != "" {
			user = append(user, t)
		}
	}
	if len(user) == 0 {
		return nil, nil
	}

	reply, err := s.gen.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: profileSystemPrompt},
		{Role: core.RoleUser, Content: formatTurns(user)},
	})
	if err != nil {
		return nil, fmt.Errorf("profile extraction call failed: %w", err)
	}

	return parseProfileResponse(reply.Content)
}

func parseProfileResponse(raw string) (*extractedProfile, error) {
	obj := extractJSONObject(raw)
	if obj == "" {
		return nil, fmt.Errorf("no JSON object in extraction response")
	}

	var ext extractedProfile
	if err := json.Unmarshal([]byte(obj), &ext); err != nil {
		return nil, fmt.Errorf("malformed extraction response: %w", err)
	}
	return &ext, nil
}

// extractJSONObject returns the outermost {...} span in raw, tolerating
// prose or code fences around it.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return ""
	}
	return raw[start : end+1]
}

// mergeProfile applies extracted attributes onto the stored profile.
// Scalars follow last-writer-wins for non-empty values; list fields are
// a case-insensitive set union that preserves first-seen order.
func mergeProfile(p *core.UserProfile, ext extractedProfile) {
	if v := strings.TrimSpace(ext.Name); v != "" {
		p.Name = v
	}
	if v := strings.TrimSpace(ext.Profession); v != "" {
		p.Profession = v
	}
	p.Hobbies = unionFold(p.Hobbies, ext.Hobbies)
	p.Traits = unionFold(p.Traits, ext.Traits)
}

func unionFold(have, add []string) []string {
	seen := make(map[string]bool, len(have))
	for _, v := range have {
		seen[strings.ToLower(strings.TrimSpace(v))] = true
	}
	for _, v := range add {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		have = append(have, v)
	}
	return have
}
