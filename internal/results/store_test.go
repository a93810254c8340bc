package results

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/stemquiz/apps/go-server/assets"
	"github.com/robalobadob/stemquiz/apps/go-server/internal/db"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "quiz.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, db.Migrate(d, assets.Migrations()))
	return NewStore(d)
}

func TestLeaderboardOrdering(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, r := range []Result{
		{RunID: "a", PlayerID: "p1", Subject: "bio", Duration: 150, Score: 200, Solved: 1, FinishedAt: base},
		{RunID: "b", PlayerID: "p2", Subject: "bio", Duration: 150, Score: 310, Solved: 2, FinishedAt: base},
		{RunID: "c", PlayerID: "p3", Subject: "bio", Duration: 150, Score: 200, Solved: 2, FinishedAt: base.Add(time.Minute)},
		{RunID: "d", PlayerID: "p4", Subject: "bio", Duration: 150, Score: 200, Solved: 2, FinishedAt: base},
		{RunID: "e", PlayerID: "p5", Subject: "bio", Duration: 60, Score: 999, FinishedAt: base},
		{RunID: "f", PlayerID: "p6", Subject: "chem", Duration: 150, Score: 999, FinishedAt: base},
	} {
		require.NoError(t, st.Insert(ctx, r))
	}

	top, err := st.Leaderboard(ctx, "bio", 150, 0)
	require.NoError(t, err)
	ids := make([]string, 0, len(top))
	for _, r := range top {
		ids = append(ids, r.RunID)
	}
	assert.Equal(t, []string{"b", "d", "c", "a"}, ids)
	assert.Equal(t, base, top[1].FinishedAt)

	allDurations, err := st.Leaderboard(ctx, "bio", 0, 2)
	require.NoError(t, err)
	require.Len(t, allDurations, 2)
	assert.Equal(t, "e", allDurations[0].RunID)
}

func TestInsertIgnoresDuplicateRun(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	r := Result{RunID: "run-1", SessionID: "s", PlayerID: "p", PlayerName: "ada", Subject: "all", Duration: 60, Score: 15}
	require.NoError(t, st.Insert(ctx, r))
	r.Score = 500
	require.NoError(t, st.Insert(ctx, r))

	mine, err := st.ByPlayer(ctx, "p", 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, 15, mine[0].Score)
	assert.Equal(t, "ada", mine[0].PlayerName)
	assert.False(t, mine[0].FinishedAt.IsZero())
}
