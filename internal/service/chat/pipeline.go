package chat

import (
	"context"
	"encoding/base64"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alexyujiuqiao/IM/internal/config"
	"github.com/alexyujiuqiao/IM/internal/core"
	"github.com/alexyujiuqiao/IM/internal/service/assemble"
	"github.com/alexyujiuqiao/IM/internal/service/memory"
	"github.com/alexyujiuqiao/IM/internal/service/rewrite"
	"github.com/alexyujiuqiao/IM/pkg/conv"
	"github.com/alexyujiuqiao/IM/pkg/log"
	"github.com/alexyujiuqiao/IM/pkg/retry"
)

// Pipeline orchestrates one message round trip: normalize, gather
// context concurrently, assemble the prompt, generate, optionally
// synthesize speech, and persist memory.
type Pipeline struct {
	cfg        *config.AppConfig
	gen        core.Generator
	synth      core.Synthesizer
	index      core.SemanticIndex
	memory     *memory.Service
	rewriter   *rewrite.Rewriter
	assembler  *assemble.Assembler
	normalizer *Normalizer
	retrier    *retry.Retrier
}

func NewPipeline(
	cfg *config.AppConfig,
	gen core.Generator,
	transcriber core.Transcriber,
	synth core.Synthesizer,
	index core.SemanticIndex,
	mem *memory.Service,
) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		gen:        gen,
		synth:      synth,
		index:      index,
		memory:     mem,
		rewriter:   rewrite.New(gen),
		assembler:  assemble.New(cfg.PromptTokenBudget, nil),
		normalizer: NewNormalizer(transcriber, cfg.MediaCeilingBytes),
		retrier:    retry.NewDefaultRetrier(),
	}
}

// Memory exposes the memory service for management operations (profile
// and summary inspection, clearing a user's memory).
func (p *Pipeline) Memory() *memory.Service { return p.memory }

// HandleMessage runs the full pipeline for one user message. personaName
// and voiceProfile are optional; an empty personaName triggers
// classification, an empty voiceProfile uses the persona's voice.
func (p *Pipeline) HandleMessage(ctx context.Context, userID string, msg core.IncomingMessage, personaName, voiceProfile string) (core.ChatResult, error) {
	logger := log.FromCtx(ctx)
	started := time.Now()

	norm, err := p.normalizer.Normalize(ctx, msg)
	if err != nil {
		return core.ChatResult{}, err
	}

	var persona core.Persona
	if personaName != "" {
		persona = core.PersonaByName(personaName)
	} else {
		persona = p.classifyPersona(ctx, norm.EffectiveText)
	}

	snap, query := p.gatherContext(ctx, userID, norm.EffectiveText)

	payload := p.assembler.Assemble(assemble.Input{
		Persona:  persona,
		Snapshot: snap,
		Query:    query,
	})

	messages := []core.Message{{Role: core.RoleSystem, Content: payload}}
	messages = append(messages, userMessage(norm))

	var reply core.Message
	err = p.retrier.Do(ctx, func() error {
		var cerr error
		reply, cerr = p.gen.Chat(ctx, messages)
		return cerr
	})
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("generation failed after retries")
		return core.ChatResult{}, &core.GenerationError{Err: err}
	}

	result := newChatResult(reply, persona.Name, payload)

	if norm.HasAudio || persona.SpokenReplies {
		p.attachSpokenReply(ctx, &result, reply.Content, persona, voiceProfile)
	}

	now := time.Now().UTC()
	turns := []core.Turn{
		{Role: core.RoleUser, Content: norm.EffectiveText, Parts: norm.MediaRefs, CreatedAt: now},
		{Role: core.RoleAssistant, Content: reply.Content, CreatedAt: now},
	}
	if _, merr := p.memory.Ingest(ctx, userID, turns); merr != nil {
		logger.Warn().Err(merr).Str("user_id", userID).Msg("memory ingestion degraded")
	}

	// Fire-and-forget fact indexing; must survive the request context.
	go p.recordKeyInfo(context.WithoutCancel(ctx), userID, norm.EffectiveText)

	logger.Debug().
		Str("user_id", userID).
		Str("persona", persona.Name).
		Dur("elapsed", time.Since(started)).
		Msg("message handled")

	return result, nil
}

// gatherContext runs the memory read, query rewrite, and semantic
// retrieval branches concurrently. Each branch has its own timeout and
// degrades independently; a failed branch contributes its zero value.
func (p *Pipeline) gatherContext(ctx context.Context, userID, effectiveText string) (core.MemorySnapshot, core.RAGQuery) {
	logger := log.FromCtx(ctx)

	var (
		snap  core.MemorySnapshot
		query = core.RAGQuery{Original: effectiveText, Rewritten: effectiveText}
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		bctx, cancel := context.WithTimeout(gctx, p.cfg.BranchTimeout)
		defer cancel()
		s, err := p.memory.Snapshot(bctx, userID)
		if err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("memory branch degraded")
		}
		snap = s
		return nil
	})

	g.Go(func() error {
		bctx, cancel := context.WithTimeout(gctx, p.cfg.BranchTimeout)
		defer cancel()
		// The branch loads its own history view so it does not wait on
		// the memory branch.
		hist, err := p.memory.Snapshot(bctx, userID)
		if err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("rewrite branch degraded")
			return nil
		}
		query.Rewritten = p.rewriter.Rewrite(bctx, effectiveText, hist.Recent)
		return nil
	})

	g.Go(func() error {
		bctx, cancel := context.WithTimeout(gctx, p.cfg.BranchTimeout)
		defer cancel()
		passages, err := p.index.Search(bctx, userID, effectiveText, p.cfg.RetrievalTopK)
		if err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("retrieval branch degraded")
			return nil
		}
		query.Retrieved = passages
		return nil
	})

	_ = g.Wait()
	return snap, query
}

// attachSpokenReply synthesizes the reply and attaches it as a data URI.
// Synthesis failure keeps the text-only result.
func (p *Pipeline) attachSpokenReply(ctx context.Context, result *core.ChatResult, replyText string, persona core.Persona, voiceProfile string) {
	voice := persona.Voice
	if voiceProfile != "" {
		voice = voiceProfile
	}

	speech := conv.MarkdownToPlainText(replyText)
	audio, err := p.synth.Synthesize(ctx, speech, voice)
	if err != nil {
		serr := &core.SynthesisError{Err: err}
		log.FromCtx(ctx).Warn().Err(serr).Str("voice", voice).Msg("spoken reply degraded to text")
		return
	}
	result.AudioRef = "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(audio)
}

// userMessage builds the generation-facing user message. Images travel
// as parts for vision models; audio was already transcribed into the
// effective text and is never sent as binary.
func userMessage(norm core.NormalizedMessage) core.Message {
	imgs := norm.Images()
	if len(imgs) == 0 {
		return core.Message{Role: core.RoleUser, Content: norm.EffectiveText}
	}

	parts := make([]core.ContentPart, 0, len(imgs)+1)
	if norm.EffectiveText != "" {
		parts = append(parts, core.ContentPart{Type: core.PartText, Text: norm.EffectiveText})
	}
	parts = append(parts, imgs...)
	return core.Message{Role: core.RoleUser, Parts: parts}
}
