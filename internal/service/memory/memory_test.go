package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexyujiuqiao/IM/internal/core"
)

type fakeStore struct {
	mu      sync.Mutex
	records map[string]*core.MemoryRecord
	getErr  error
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*core.MemoryRecord)}
}

func (s *fakeStore) Get(_ context.Context, userID string) (*core.MemoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	rec, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeStore) Put(_ context.Context, userID string, rec *core.MemoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	cp := *rec
	s.records[userID] = &cp
	return nil
}

func (s *fakeStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, userID)
	return nil
}

// scriptedGen answers every call with the same message, or fails.
type scriptedGen struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []string
}

func (g *scriptedGen) Chat(_ context.Context, messages []core.Message) (core.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(messages) > 0 {
		g.calls = append(g.calls, messages[0].Content)
	}
	if g.err != nil {
		return core.Message{}, g.err
	}
	return core.Message{Role: core.RoleAssistant, Content: g.reply}, nil
}

func userTurn(text string) core.Turn {
	return core.Turn{Role: core.RoleUser, Content: text, CreatedAt: time.Now().UTC()}
}

func assistantTurn(text string) core.Turn {
	return core.Turn{Role: core.RoleAssistant, Content: text, CreatedAt: time.Now().UTC()}
}

func TestIngestCreatesRecordAndCountsOnce(t *testing.T) {
	store := newFakeStore()
	gen := &scriptedGen{reply: `{"name":"","profession":"","hobbies":[],"personality_traits":[]}`}
	svc := NewService(store, gen, 10)

	snap, err := svc.Ingest(context.Background(), "u1", []core.Turn{
		userTurn("hello"),
		assistantTurn("hi there"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Profile.InteractionCount)
	assert.Len(t, snap.Recent, 2)
	assert.False(t, snap.Profile.LastInteractionAt.IsZero())

	snap, err = svc.Ingest(context.Background(), "u1", []core.Turn{
		userTurn("again"),
		assistantTurn("welcome back"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Profile.InteractionCount, "one increment per turn pair")
	assert.Len(t, snap.Recent, 4)
}

func TestIngestEvictsAndFoldsSummary(t *testing.T) {
	store := newFakeStore()
	gen := &scriptedGen{reply: "User discussed travel plans."}
	svc := NewService(store, gen, 4)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Ingest(ctx, "u1", []core.Turn{
			userTurn(fmt.Sprintf("message %d", i)),
			assistantTurn(fmt.Sprintf("reply %d", i)),
		})
		require.NoError(t, err)
	}

	snap, err := svc.Snapshot(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, snap.Recent, 4, "buffer stays at its bound")
	assert.Equal(t, "User discussed travel plans.", snap.Summary)
	assert.Equal(t, "message 1", snap.Recent[0].Content, "oldest overflow turns are evicted first")
}

func TestFoldFailureKeepsPriorSummary(t *testing.T) {
	store := newFakeStore()
	store.records["u1"] = &core.MemoryRecord{
		Profile:        core.UserProfile{UserID: "u1", InteractionCount: 3},
		RecentBuffer:   []core.Turn{userTurn("a"), assistantTurn("b"), userTurn("c"), assistantTurn("d")},
		RollingSummary: "established summary",
	}
	gen := &scriptedGen{err: fmt.Errorf("model unavailable")}
	svc := NewService(store, gen, 4)

	snap, err := svc.Ingest(context.Background(), "u1", []core.Turn{
		userTurn("e"),
		assistantTurn("f"),
	})
	require.NoError(t, err, "summarization failure must not fail ingestion")

	assert.Equal(t, "established summary", snap.Summary)
	assert.Len(t, snap.Recent, 4, "eviction proceeds even when the fold fails")
	assert.Equal(t, 4, snap.Profile.InteractionCount)
}

func TestIngestLoadFailureNeverClobbersStoredState(t *testing.T) {
	store := newFakeStore()
	store.records["u1"] = &core.MemoryRecord{
		Profile: core.UserProfile{
			UserID:           "u1",
			Name:             "Dana",
			InteractionCount: 5,
		},
		RecentBuffer:   []core.Turn{userTurn("old"), assistantTurn("reply")},
		RollingSummary: "long-standing summary",
	}
	gen := &scriptedGen{reply: `{"name":"","profession":"","hobbies":[],"personality_traits":[]}`}
	svc := NewService(store, gen, 10)

	store.getErr = fmt.Errorf("storage hiccup")
	snap, err := svc.Ingest(context.Background(), "u1", []core.Turn{
		userTurn("hello"),
		assistantTurn("hi"),
	})
	require.Error(t, err)
	assert.Len(t, snap.Recent, 2, "the caller still gets a usable snapshot of these turns")

	store.getErr = nil
	rec, gerr := store.Get(context.Background(), "u1")
	require.NoError(t, gerr)
	require.NotNil(t, rec)
	assert.Equal(t, 5, rec.Profile.InteractionCount, "counter stays monotone across a failed load")
	assert.Equal(t, "Dana", rec.Profile.Name)
	assert.Equal(t, "long-standing summary", rec.RollingSummary)
	assert.Len(t, rec.RecentBuffer, 2)

	snap, err = svc.Ingest(context.Background(), "u1", []core.Turn{
		userTurn("back again"),
		assistantTurn("welcome"),
	})
	require.NoError(t, err)
	assert.Equal(t, 6, snap.Profile.InteractionCount, "normal ingestion resumes from the stored state")
}

func TestConcurrentIngestSerializesPerUser(t *testing.T) {
	store := newFakeStore()
	gen := &scriptedGen{reply: `{"name":"","profession":"","hobbies":[],"personality_traits":[]}`}
	svc := NewService(store, gen, 4)

	const calls = 16
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Ingest(context.Background(), "u1", []core.Turn{
				userTurn(fmt.Sprintf("message %d", i)),
				assistantTurn(fmt.Sprintf("reply %d", i)),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	snap, err := svc.Snapshot(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, calls, snap.Profile.InteractionCount, "each ingest increments exactly once")
	assert.LessOrEqual(t, len(snap.Recent), 4, "buffer bound holds under contention")
}

func TestProfileMergeSemantics(t *testing.T) {
	p := core.UserProfile{
		UserID:     "u1",
		Name:       "Alice",
		Profession: "librarian",
		Hobbies:    []string{"reading"},
		Traits:     []string{"curious"},
	}

	mergeProfile(&p, extractedProfile{
		Name:       "  ",
		Profession: "engineer",
		Hobbies:    []string{"Reading", "hiking"},
		Traits:     []string{"patient"},
	})

	assert.Equal(t, "Alice", p.Name, "blank extraction never clobbers a known name")
	assert.Equal(t, "engineer", p.Profession, "non-empty scalar wins")
	assert.Equal(t, []string{"reading", "hiking"}, p.Hobbies, "case-insensitive union keeps first-seen order")
	assert.Equal(t, []string{"curious", "patient"}, p.Traits)
}

func TestParseProfileResponseToleratesProse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *extractedProfile
		wantErr bool
	}{
		{
			name: "bare object",
			raw:  `{"name":"Bob","profession":"","hobbies":["chess"],"personality_traits":[]}`,
			want: &extractedProfile{Name: "Bob", Hobbies: []string{"chess"}},
		},
		{
			name: "fenced object",
			raw:  "Here you go:\n```json\n{\"name\":\"Bob\",\"profession\":\"\",\"hobbies\":[],\"personality_traits\":[]}\n```",
			want: &extractedProfile{Name: "Bob"},
		},
		{
			name:    "no json at all",
			raw:     "I could not find anything.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProfileResponse(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Name, got.Name)
			assert.Equal(t, tt.want.Hobbies, got.Hobbies)
		})
	}
}

func TestClearIsTotal(t *testing.T) {
	store := newFakeStore()
	gen := &scriptedGen{reply: `{"name":"Carol","profession":"","hobbies":[],"personality_traits":[]}`}
	svc := NewService(store, gen, 10)

	ctx := context.Background()
	_, err := svc.Ingest(ctx, "u1", []core.Turn{userTurn("my name is Carol"), assistantTurn("hi Carol")})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, "u1"))

	snap, err := svc.Snapshot(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, snap.Recent)
	assert.Empty(t, snap.Summary)
	assert.Empty(t, snap.Profile.Name)
	assert.Zero(t, snap.Profile.InteractionCount)
}

func TestSnapshotMissingUserIsEmpty(t *testing.T) {
	svc := NewService(newFakeStore(), &scriptedGen{}, 10)

	snap, err := svc.Snapshot(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, "ghost", snap.Profile.UserID)
	assert.Empty(t, snap.Recent)
	assert.Empty(t, snap.MemoryContext)
}

func TestBuildMemoryContext(t *testing.T) {
	turns := []core.Turn{
		userTurn("where is the station"),
		assistantTurn("two blocks north"),
	}
	got := buildMemoryContext(turns, "User is visiting Berlin.")

	assert.Contains(t, got, "Summary of earlier conversation: User is visiting Berlin.")
	assert.Contains(t, got, "user: where is the station")
	assert.Contains(t, got, "assistant: two blocks north")
}
