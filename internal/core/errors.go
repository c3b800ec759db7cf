package core

import (
	"errors"
	"fmt"
)

// ErrPayloadTooLarge rejects inbound media exceeding the configured
// decoded-size ceiling. Checked before pipeline entry.
var ErrPayloadTooLarge = errors.New("payload too large")

// Stable error codes surfaced to the caller. Internal degradations
// (retrieval, rewrite, memory) are log-only and have no codes.
const (
	CodeGenerationFailed    = "generation_failed"
	CodeTranscriptionFailed = "transcription_failed"
	CodePayloadTooLarge     = "payload_too_large"
)

// GenerationError is terminal: the language-model call failed after
// bounded retries. No memory write-back happens for the turn.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// TranscriptionError aborts the request: without a transcript there is no
// effective text to run the pipeline on.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// SynthesisError degrades the response to text-only; it never surfaces.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// ErrorCode maps a pipeline error to its stable user-visible code.
func ErrorCode(err error) string {
	var genErr *GenerationError
	var trErr *TranscriptionError
	switch {
	case errors.Is(err, ErrPayloadTooLarge):
		return CodePayloadTooLarge
	case errors.As(err, &trErr):
		return CodeTranscriptionFailed
	case errors.As(err, &genErr):
		return CodeGenerationFailed
	default:
		return CodeGenerationFailed
	}
}
