package core

import "time"

const (
	AppName    = "IM"
	AppVersion = "0.1.0"

	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content part types for multimodal messages. Media parts carry either a
// data URI or a bare base64 payload; the normalizer adds the prefix when
// it is missing.
const (
	PartText     = "text"
	PartImageURL = "image_url"
	PartAudioURL = "audio_url"
)

type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Message is a single generation-facing chat message. Parts is set only
// for multimodal user messages (vision input); Content is used otherwise.
type Message struct {
	Role    string        `json:"role"`
	Content string        `json:"content"`
	Parts   []ContentPart `json:"parts,omitempty"`
}

// Turn is one recorded conversation turn. Immutable once recorded.
type Turn struct {
	Role      string        `json:"role"`
	Content   string        `json:"content"`
	Parts     []ContentPart `json:"parts,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// IncomingMessage is the raw inbound user message before normalization.
// Either Text or Parts is set.
type IncomingMessage struct {
	Text  string        `json:"text,omitempty"`
	Parts []ContentPart `json:"parts,omitempty"`
}

// NormalizedMessage is the canonical form produced by the multimodal
// normalizer: the effective text used for rewriting and retrieval, plus
// the original media references. Audio references are never fed to the
// language model as binary data.
type NormalizedMessage struct {
	EffectiveText string
	MediaRefs     []ContentPart
	HasAudio      bool
}

func (n NormalizedMessage) Images() []ContentPart {
	var imgs []ContentPart
	for _, p := range n.MediaRefs {
		if p.Type == PartImageURL {
			imgs = append(imgs, p)
		}
	}
	return imgs
}

// UserProfile holds incrementally learned user attributes. Fields are
// optional and never overwritten with empty values; Hobbies and Traits
// only grow. Mutated exclusively through the profile merge in the memory
// service.
type UserProfile struct {
	UserID            string    `json:"user_id"`
	Name              string    `json:"name,omitempty"`
	Profession        string    `json:"profession,omitempty"`
	Hobbies           []string  `json:"hobbies,omitempty"`
	Traits            []string  `json:"personality_traits,omitempty"`
	InteractionCount  int       `json:"interaction_count"`
	LastInteractionAt time.Time `json:"last_interaction_at,omitzero"`
}

func (p UserProfile) IsEmpty() bool {
	return p.Name == "" && p.Profession == "" &&
		len(p.Hobbies) == 0 && len(p.Traits) == 0
}

// MemoryRecord is the persisted per-user memory state.
type MemoryRecord struct {
	Profile        UserProfile `json:"profile"`
	RecentBuffer   []Turn      `json:"recent_buffer"`
	RollingSummary string      `json:"rolling_summary"`
}

// MemorySnapshot is the computed-on-read view of a user's memory. It has
// no independent lifecycle and is rebuilt on every pipeline invocation.
type MemorySnapshot struct {
	MemoryContext string
	Summary       string
	Profile       UserProfile
	Recent        []Turn
}

type Passage struct {
	Text  string
	Score float32
}

// RAGQuery carries the query through the retrieval path. Rewritten
// defaults to Original when history is empty or rewriting degrades.
type RAGQuery struct {
	Original  string
	Rewritten string
	Retrieved []Passage
}

// ChatResult is the pipeline output, shaped so the endpoint layer can
// render it as an OpenAI-style chat completion object.
type ChatResult struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`

	// AudioRef is a data:audio/mpeg;base64 reference to the synthesized
	// spoken reply, set only when synthesis ran and succeeded.
	AudioRef string `json:"audio_ref,omitempty"`
	Persona  string `json:"persona,omitempty"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
