package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alexyujiuqiao/IM/internal/core"
	"github.com/alexyujiuqiao/IM/pkg/log"
)

// memoryContextTurns caps how many recent turns are flattened into the
// snapshot's memory_context string.
const memoryContextTurns = 10

// Service maintains the tiered conversation memory for every user: a
// bounded recent-turn buffer, a rolling summary folded from evicted
// turns, and an incrementally merged profile. Mutations for one user are
// serialized; different users never contend. Reads never block on a
// pending write.
type Service struct {
	store      core.MemoryStore
	gen        core.Generator
	bufferSize int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(store core.MemoryStore, gen core.Generator, bufferSize int) *Service {
	if bufferSize <= 0 {
		bufferSize = 10
	}
	return &Service{
		store:      store,
		gen:        gen,
		bufferSize: bufferSize,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// Ingest appends turns to the user's recent buffer, folds any overflow
// into the rolling summary, merges newly inferable profile attributes,
// and bumps the interaction counter exactly once. Summarization and
// extraction failures degrade to partial state; only a storage failure
// is reported, and even then the returned snapshot is usable. When the
// prior record cannot be loaded, nothing is written back, so stored
// state is never replaced with a guess.
func (s *Service) Ingest(ctx context.Context, userID string, turns []core.Turn) (core.MemorySnapshot, error) {
	logger := log.FromCtx(ctx)

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		// The prior state is unknown; writing a fresh record here would
		// clobber the stored profile and summary. Serve an ephemeral
		// snapshot of just these turns and leave persistence untouched.
		logger.Warn().Err(err).Str("user_id", userID).Msg("memory load failed, skipping persistence for this turn")
		ephemeral := &core.MemoryRecord{
			Profile:      core.UserProfile{UserID: userID},
			RecentBuffer: turns,
		}
		return snapshotOf(ephemeral), fmt.Errorf("failed to load memory record: %w", err)
	}
	if rec == nil {
		rec = &core.MemoryRecord{Profile: core.UserProfile{UserID: userID}}
	}

	rec.RecentBuffer = append(rec.RecentBuffer, turns...)

	if overflow := len(rec.RecentBuffer) - s.bufferSize; overflow > 0 {
		evicted := make([]core.Turn, overflow)
		copy(evicted, rec.RecentBuffer[:overflow])
		rec.RecentBuffer = append([]core.Turn(nil), rec.RecentBuffer[overflow:]...)

		folded, err := s.condense(ctx, rec.RollingSummary, evicted)
		if err != nil {
			// Keep the prior summary; eviction itself is never blocked.
			logger.Warn().Err(err).Str("user_id", userID).Msg("summary fold failed, keeping prior summary")
		} else {
			rec.RollingSummary = folded
		}
	}

	if ext, err := s.extractProfile(ctx, turns); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("profile extraction failed")
	} else if ext != nil {
		mergeProfile(&rec.Profile, *ext)
	}

	rec.Profile.InteractionCount++
	rec.Profile.LastInteractionAt = time.Now().UTC()

	if err := s.store.Put(ctx, userID, rec); err != nil {
		return snapshotOf(rec), fmt.Errorf("failed to persist memory record: %w", err)
	}

	return snapshotOf(rec), nil
}

// Snapshot assembles the read-only memory view without recording
// anything. Missing users get an empty snapshot.
func (s *Service) Snapshot(ctx context.Context, userID string) (core.MemorySnapshot, error) {
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return emptySnapshot(userID), fmt.Errorf("failed to load memory record: %w", err)
	}
	if rec == nil {
		return emptySnapshot(userID), nil
	}
	return snapshotOf(rec), nil
}

// Clear removes the recent buffer, rolling summary, and profile for the
// user. Subsequent reads return an empty snapshot.
func (s *Service) Clear(ctx context.Context, userID string) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear memory: %w", err)
	}
	return nil
}

// Profile returns the current profile view for the user.
func (s *Service) Profile(ctx context.Context, userID string) (core.UserProfile, error) {
	snap, err := s.Snapshot(ctx, userID)
	return snap.Profile, err
}

// Summary returns the current rolling summary for the user.
func (s *Service) Summary(ctx context.Context, userID string) (string, error) {
	snap, err := s.Snapshot(ctx, userID)
	return snap.Summary, err
}

func emptySnapshot(userID string) core.MemorySnapshot {
	return core.MemorySnapshot{Profile: core.UserProfile{UserID: userID}}
}

func snapshotOf(rec *core.MemoryRecord) core.MemorySnapshot {
	recent := make([]core.Turn, len(rec.RecentBuffer))
	copy(recent, rec.RecentBuffer)

	return core.MemorySnapshot{
		MemoryContext: buildMemoryContext(recent, rec.RollingSummary),
		Summary:       rec.RollingSummary,
		Profile:       rec.Profile,
		Recent:        recent,
	}
}

// buildMemoryContext flattens the summary and the most recent turns into
// a single context string for prompt assembly.
func buildMemoryContext(recent []core.Turn, summary string) string {
	var b strings.Builder

	if summary != "" {
		b.WriteString("Summary of earlier conversation: ")
		b.WriteString(summary)
		b.WriteByte('\n')
	}

	start := 0
	if len(recent) > memoryContextTurns {
		start = len(recent) - memoryContextTurns
	}
	for _, t := range recent[start:] {
		if t.Content == "" {
			continue
		}
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteByte('\n')
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatTurns(turns []core.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		if t.Content == "" {
			continue
		}
		b.WriteString(strings.ToUpper(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteByte('\n')
	}
	return b.String()
}
