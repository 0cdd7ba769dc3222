package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloud-architect-sim/core/architecture"
	"cloud-architect-sim/core/engine"
	"cloud-architect-sim/internal/config"
	"cloud-architect-sim/internal/errors"
)

func setup(t *testing.T) (*engine.Engine, *config.Config) {
	t.Helper()
	cfg := config.Default()
	e, err := engine.Build(cfg)
	require.NoError(t, err)
	return e, cfg
}

// buildBlog places the level 1 architecture and wires it.
// withIAM controls whether iam is placed and connected.
func buildBlog(t *testing.T, s *Session, withIAM bool) {
	t.Helper()
	refs := make(map[string]architecture.Ref)
	ids := []string{"api_gateway", "lambda", "dynamodb", "s3"}
	if withIAM {
		ids = append(ids, "iam")
	}
	for _, id := range ids {
		ref, err := s.Place(id)
		require.NoError(t, err, id)
		refs[id] = ref
	}

	links := [][2]string{{"api_gateway", "lambda"}, {"lambda", "dynamodb"}, {"lambda", "s3"}}
	if withIAM {
		links = append(links, [2]string{"iam", "lambda"})
	}
	for _, l := range links {
		_, err := s.Connect(refs[l[0]], refs[l[1]])
		require.NoError(t, err, "%s->%s", l[0], l[1])
	}
}

func TestNewRejectsLockedAndUnknownLevels(t *testing.T) {
	e, cfg := setup(t)

	_, err := New(e, cfg, NewProgress("p"), 2, ModeNormal)
	assert.True(t, errors.IsType(err, errors.TypeInput), "got %v", err)

	_, err = New(e, cfg, NewProgress("p"), 42, ModeNormal)
	assert.True(t, errors.IsType(err, errors.TypeNotFound), "got %v", err)

	cfg.Game.UnlockAllLevels = true
	s, err := New(e, cfg, nil, 5, ModeNormal)
	require.NoError(t, err)
	assert.Equal(t, 5, s.Level.ID)
	assert.NotEmpty(t, s.ID)
}

func TestCompleteBlogLevel(t *testing.T) {
	e, cfg := setup(t)
	progress := NewProgress("p")

	s, err := New(e, cfg, progress, 1, ModeNormal)
	require.NoError(t, err)

	buildBlog(t, s, true)
	assert.Equal(t, 40, s.Score, "four accepted connections")

	out, err := s.Validate()
	require.NoError(t, err)
	assert.True(t, out.Completed)
	assert.Equal(t, 190, out.Score)
	assert.Equal(t, RankSilver, out.Rank)

	assert.True(t, s.Finished())
	assert.True(t, progress.IsUnlocked(2))
	best, ok := progress.Best(1)
	require.True(t, ok)
	assert.Equal(t, 190, best)
	assert.Equal(t, RankSilver, progress.HighestRank)

	_, err = s.Place("lambda")
	assert.True(t, errors.IsType(err, errors.TypeInput), "finished sessions reject changes")
}

func TestFailedValidationKeepsPlaying(t *testing.T) {
	e, cfg := setup(t)
	s, err := New(e, cfg, nil, 1, ModeNormal)
	require.NoError(t, err)

	buildBlog(t, s, false)
	out, err := s.Validate()
	require.NoError(t, err)

	assert.False(t, out.Completed)
	assert.Equal(t, engine.FailureSecurity, out.Result.Failure)
	assert.Equal(t, 30-20, s.Score)
	assert.False(t, s.Finished())
	assert.False(t, s.Progress().IsUnlocked(2))

	_, err = s.Place("iam")
	assert.NoError(t, err)
}

func TestInvalidConnectionEarnsNothing(t *testing.T) {
	e, cfg := setup(t)
	s, err := New(e, cfg, nil, 1, ModeNormal)
	require.NoError(t, err)

	db, err := s.Place("dynamodb")
	require.NoError(t, err)
	gw, err := s.Place("api_gateway")
	require.NoError(t, err)

	_, err = s.Connect(db, gw)
	assert.True(t, errors.IsType(err, errors.TypeInvalidConnection))
	assert.Zero(t, s.Score)
}

func TestTimeTrial(t *testing.T) {
	e, cfg := setup(t)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("valid architecture doubles the score", func(t *testing.T) {
		s, err := New(e, cfg, nil, 1, ModeTimeTrial)
		require.NoError(t, err)
		s.now = func() time.Time { return start }
		s.Deadline = start.Add(5 * time.Minute)

		buildBlog(t, s, true)
		out, err := s.Validate()
		require.NoError(t, err)
		assert.True(t, out.TimeTrialBonus)
		assert.Equal(t, 380, out.Score)
		assert.Equal(t, RankGold, out.Rank)
		assert.Equal(t, 5*time.Minute, s.TimeRemaining())
	})

	t.Run("time out with a positive score completes", func(t *testing.T) {
		s, err := New(e, cfg, nil, 1, ModeTimeTrial)
		require.NoError(t, err)
		now := start
		s.now = func() time.Time { return now }
		s.Deadline = start.Add(time.Minute)

		buildBlog(t, s, false)
		_, ok := s.TimeOut()
		assert.False(t, ok, "not expired yet")

		now = start.Add(2 * time.Minute)
		assert.Zero(t, s.TimeRemaining())

		_, err = s.Place("iam")
		assert.True(t, errors.IsType(err, errors.TypeInput))

		out, ok := s.TimeOut()
		require.True(t, ok)
		assert.True(t, out.Completed)
		assert.Equal(t, 60, out.Score)
		assert.True(t, s.Progress().IsUnlocked(2))
	})

	t.Run("time out without score just ends", func(t *testing.T) {
		s, err := New(e, cfg, nil, 1, ModeTimeTrial)
		require.NoError(t, err)
		s.now = func() time.Time { return start }
		s.Deadline = start

		out, ok := s.TimeOut()
		require.True(t, ok)
		assert.False(t, out.Completed)
		assert.True(t, s.Finished())
		assert.Empty(t, s.Progress().Completed)
	})
}

func TestTutorialMode(t *testing.T) {
	e, cfg := setup(t)
	s, err := New(e, cfg, nil, 1, ModeTutorial)
	require.NoError(t, err)

	assert.Equal(t, "First, create an API Gateway to handle HTTP requests.", s.CurrentTutorialStep())

	_, err = s.Place("api_gateway")
	require.NoError(t, err)
	assert.Equal(t, 1, s.TutorialStep)
	assert.Equal(t, "Next, add a Lambda function to process the API requests.", s.CurrentTutorialStep())

	normal, err := New(e, cfg, nil, 1, ModeNormal)
	require.NoError(t, err)
	_, err = normal.Place("api_gateway")
	require.NoError(t, err)
	assert.Zero(t, normal.TutorialStep)
	assert.Empty(t, normal.CurrentTutorialStep())
}

func TestReset(t *testing.T) {
	e, cfg := setup(t)
	s, err := New(e, cfg, nil, 1, ModeNormal)
	require.NoError(t, err)

	buildBlog(t, s, true)
	s.Reset()
	assert.Zero(t, s.Score)
	assert.Zero(t, s.Architecture.Len())

	_, err = s.Place("redshift")
	assert.True(t, errors.IsType(err, errors.TypeInput), "level restriction survives a reset")
}

func TestParseMode(t *testing.T) {
	for _, name := range []string{"", "normal", "tutorial", "time_trial"} {
		_, err := ParseMode(name)
		assert.NoError(t, err, name)
	}
	_, err := ParseMode("speedrun")
	assert.True(t, errors.IsType(err, errors.TypeInput))
}

func TestRankFor(t *testing.T) {
	ranks := config.Default().Ranks
	tests := []struct {
		score int
		want  Rank
	}{
		{-40, RankBronze},
		{0, RankBronze},
		{149, RankBronze},
		{150, RankSilver},
		{249, RankSilver},
		{250, RankGold},
		{1000, RankGold},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RankFor(tt.score, ranks), "score %d", tt.score)
	}
	assert.Equal(t, RankBronze, ParseRank("Platinum"))
	assert.Equal(t, RankGold, ParseRank("Gold"))
}

func TestProgressComplete(t *testing.T) {
	ranks := config.Default().Ranks
	p := NewProgress("")
	assert.Equal(t, DefaultPlayer, p.Player)
	assert.Equal(t, []int{1}, p.UnlockedLevels())

	assert.Equal(t, RankGold, p.Complete(1, 260, ranks, 10))
	assert.Equal(t, RankBronze, p.Complete(1, 90, ranks, 10))
	best, _ := p.Best(1)
	assert.Equal(t, 260, best, "best score is kept")
	assert.Equal(t, RankGold, p.HighestRank, "highest rank never drops")

	p.Complete(2, 160, ranks, 10)
	assert.Equal(t, 420, p.TotalScore)
	assert.Equal(t, []int{1, 2, 3}, p.UnlockedLevels())
	assert.Equal(t, []int{1, 2}, p.CompletedLevels())

	p.Complete(10, 10, ranks, 10)
	assert.False(t, p.IsUnlocked(11))

	fresh := NewProgress("q")
	fresh.Complete(1, 150, ranks, 10)
	assert.Equal(t, RankSilver, fresh.HighestRank)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	p, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Player)
	assert.Empty(t, p.Completed)

	p.Complete(1, 200, config.Default().Ranks, 10)
	require.NoError(t, store.Save(ctx, "alice", p))

	// mutations after Save do not leak into the store
	p.Completed[1] = 0

	loaded, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	best, _ := loaded.Best(1)
	assert.Equal(t, 200, best)
	assert.True(t, loaded.IsUnlocked(2))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.Load(cancelled, "alice")
	assert.Error(t, err)
}
