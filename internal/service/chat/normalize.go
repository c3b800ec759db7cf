package chat

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/alexyujiuqiao/IM/internal/core"
)

// Normalizer canonicalizes inbound messages: text parts are joined,
// audio parts are transcribed into the effective text, and image parts
// are kept as references for the vision-capable generator. The total
// decoded media size is validated before any provider call.
type Normalizer struct {
	transcriber core.Transcriber
	ceiling     int64
}

func NewNormalizer(transcriber core.Transcriber, ceilingBytes int64) *Normalizer {
	return &Normalizer{transcriber: transcriber, ceiling: ceilingBytes}
}

func (n *Normalizer) Normalize(ctx context.Context, msg core.IncomingMessage) (core.NormalizedMessage, error) {
	if len(msg.Parts) == 0 {
		return core.NormalizedMessage{EffectiveText: strings.TrimSpace(msg.Text)}, nil
	}

	// Size check first so oversized payloads are rejected before any
	// transcription spend.
	var total int64
	for _, p := range msg.Parts {
		switch p.Type {
		case core.PartImageURL:
			total += decodedSize(ensureDataURI(p.URL, "image/jpeg"))
		case core.PartAudioURL:
			total += decodedSize(ensureDataURI(p.URL, "audio/wav"))
		}
	}
	if n.ceiling > 0 && total > n.ceiling {
		return core.NormalizedMessage{}, fmt.Errorf("decoded media is %d bytes: %w", total, core.ErrPayloadTooLarge)
	}

	var (
		texts []string
		out   core.NormalizedMessage
	)
	if t := strings.TrimSpace(msg.Text); t != "" {
		texts = append(texts, t)
	}

	for _, p := range msg.Parts {
		switch p.Type {
		case core.PartText:
			if t := strings.TrimSpace(p.Text); t != "" {
				texts = append(texts, t)
			}

		case core.PartImageURL:
			out.MediaRefs = append(out.MediaRefs, core.ContentPart{
				Type: core.PartImageURL,
				URL:  ensureDataURI(p.URL, "image/jpeg"),
			})

		case core.PartAudioURL:
			uri := ensureDataURI(p.URL, "audio/wav")
			if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
				return core.NormalizedMessage{}, &core.TranscriptionError{
					Err: fmt.Errorf("remote audio references are not supported, inline the payload as base64"),
				}
			}
			raw, err := decodeDataURI(uri)
			if err != nil {
				return core.NormalizedMessage{}, &core.TranscriptionError{Err: fmt.Errorf("undecodable audio payload: %w", err)}
			}
			transcript, err := n.transcriber.Transcribe(ctx, raw)
			if err != nil {
				return core.NormalizedMessage{}, &core.TranscriptionError{Err: err}
			}
			if t := strings.TrimSpace(transcript); t != "" {
				texts = append(texts, t)
			}
			out.HasAudio = true
			out.MediaRefs = append(out.MediaRefs, core.ContentPart{Type: core.PartAudioURL, URL: uri})
		}
	}

	out.EffectiveText = strings.Join(texts, " ")
	return out, nil
}

// ensureDataURI prefixes a bare base64 payload with a data URI header.
// Existing data URIs and remote http(s) references pass through.
func ensureDataURI(url, mime string) string {
	if strings.HasPrefix(url, "data:") ||
		strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "data:" + mime + ";base64," + url
}

// decodedSize estimates the decoded byte size of a data URI without
// decoding it. Remote references count as zero.
func decodedSize(uri string) int64 {
	b64, ok := dataURIPayload(uri)
	if !ok {
		return 0
	}
	return int64(base64.StdEncoding.DecodedLen(len(b64)))
}

func decodeDataURI(uri string) ([]byte, error) {
	b64, ok := dataURIPayload(uri)
	if !ok {
		return nil, fmt.Errorf("not a base64 data URI")
	}
	return base64.StdEncoding.DecodeString(b64)
}

func dataURIPayload(uri string) (string, bool) {
	if !strings.HasPrefix(uri, "data:") {
		return "", false
	}
	i := strings.Index(uri, ",")
	if i < 0 {
		return "", false
	}
	return uri[i+1:], true
}
