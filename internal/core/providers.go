package core

import "context"

// Generator is the language-model collaborator. It serves chat
// completion, summary condensation, profile extraction, and query
// rewriting calls.
type Generator interface {
	Chat(ctx context.Context, messages []Message) (Message, error)
}

// Transcriber converts raw audio bytes into text (ASR).
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer converts text into spoken audio bytes (TTS).
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// SemanticIndex is the vector/document index used for semantic retrieval.
// Passages are namespaced per user.
type SemanticIndex interface {
	Search(ctx context.Context, userID, query string, topK int) ([]Passage, error)
	Upsert(ctx context.Context, userID, passage string) error
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
