package quiz

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cell = Clue{Prompt: "The powerhouse of the cell.", Answer: "mitochondria"}

func newSession(t *testing.T, clues ...Clue) *Session {
	t.Helper()
	s, err := New("bio", 150, clues, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	return s
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New("bio", 0, []Clue{cell}, nil)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = New("bio", 60, nil, nil)
	assert.ErrorIs(t, err, ErrNoClues)
}

func TestNewStartsFresh(t *testing.T) {
	s := newSession(t, cell)
	assert.Equal(t, PhaseActive, s.Phase)
	assert.Equal(t, 0, s.Score)
	assert.Equal(t, 0, s.Index)
	assert.Equal(t, 150, s.Remaining)
	assert.Len(t, s.Mask, len(cell.Answer))
	assert.False(t, s.IsComplete())
}

func TestGuessHitRevealsEveryPosition(t *testing.T) {
	s := newSession(t, cell)

	res, err := s.Guess("o")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Matches)
	assert.Equal(t, 20, res.Delta)
	assert.Equal(t, 20, s.Score)
	assert.Equal(t, 'o', s.Mask[3])
	assert.Equal(t, 'o', s.Mask[6])

	v := s.View()
	assert.Equal(t, "", v.Cells[0])
	assert.Equal(t, "o", v.Cells[3])
	assert.Equal(t, "o", v.Cells[6])
	assert.Equal(t, []string{"o"}, v.UsedLetters)

	// A letter that occurs once scores a single position.
	res, err = s.Guess("m")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matches)
	assert.Equal(t, HitPoints, res.Delta)
	assert.Equal(t, 30, s.Score)
	assert.Equal(t, "m", s.View().Cells[0])
}

func TestGuessMissIsFlatPenalty(t *testing.T) {
	s := newSession(t, cell)

	res, err := s.Guess("z")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Matches)
	assert.Equal(t, -5, s.Score)
	for _, c := range s.Mask {
		assert.Zero(t, c)
	}

	// No floor on the score.
	_, _ = s.Guess("q")
	assert.Equal(t, -10, s.Score)
}

func TestGuessRepeatedLetterIsNoop(t *testing.T) {
	s := newSession(t, cell)
	_, _ = s.Guess("z")
	_, _ = s.Guess("m")

	res, err := s.Guess("M")
	require.NoError(t, err)
	assert.True(t, res.Repeated)
	res, err = s.Guess("z")
	require.NoError(t, err)
	assert.True(t, res.Repeated)
	assert.Equal(t, -MissPenalty+HitPoints, s.Score)
}

func TestGuessRejectsNonLetters(t *testing.T) {
	s := newSession(t, cell)
	for _, in := range []string{"", "ab", "1", "-", "é"} {
		_, err := s.Guess(in)
		assert.ErrorIs(t, err, ErrInvalidLetter, "input %q", in)
	}
	assert.Equal(t, 0, s.Score)
}

func TestSolveBonusAndAdvance(t *testing.T) {
	atom := Clue{Prompt: "The basic unit of a chemical element.", Answer: "atom"}
	s := newSession(t, atom, cell)
	first := s.Current()

	var last GuessResult
	for _, r := range uniqueLetters(first.Answer) {
		res, err := s.Guess(string(r))
		require.NoError(t, err)
		last = res
	}
	assert.True(t, last.Completed)
	assert.True(t, s.IsComplete())
	assert.Equal(t, PhaseSolved, s.Phase)
	assert.Equal(t, HitPoints*len(first.Answer)+SolveBonus, s.Score)
	assert.Equal(t, 1, s.Solved)
	assert.True(t, s.View().MessageTransient)
	assert.Equal(t, SolvedMessage, s.View().Message)

	// Guessing or skipping while the solve message shows is rejected.
	_, err := s.Guess("x")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, s.Skip(), ErrInvalidState)

	require.NoError(t, s.Advance())
	assert.Equal(t, PhaseActive, s.Phase)
	assert.Equal(t, 1, s.Index)
	assert.NotEqual(t, first, s.Current())
	assert.Empty(t, s.View().UsedLetters)
	assert.Len(t, s.Mask, len(s.Current().Answer))
	assert.ErrorIs(t, s.Advance(), ErrInvalidState)
}

func TestSkipCyclesWithoutScoring(t *testing.T) {
	a := Clue{Prompt: "a", Answer: "atom"}
	b := Clue{Prompt: "b", Answer: "element"}
	s := newSession(t, a, b)
	_, _ = s.Guess("z")
	before := s.Score

	require.NoError(t, s.Skip())
	assert.Equal(t, 1, s.Index)
	require.NoError(t, s.Skip())
	assert.Equal(t, 0, s.Index)
	assert.Equal(t, before, s.Score)
	assert.Equal(t, 2, s.Skipped)
	assert.Len(t, s.Mask, len(s.Current().Answer))
}

func TestTickEndsExactlyOnce(t *testing.T) {
	s, err := New("bio", 3, []Clue{cell}, nil)
	require.NoError(t, err)

	ended := 0
	for i := 0; i < 10; i++ {
		if s.Tick() {
			ended++
		}
		assert.GreaterOrEqual(t, s.Remaining, 0)
	}
	assert.Equal(t, 1, ended)
	assert.Equal(t, PhaseEnded, s.Phase)
	assert.Equal(t, TimeUpMessage, s.Message)
	assert.False(t, s.View().MessageTransient)

	_, err = s.Guess("m")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, s.Skip(), ErrInvalidState)
}

func TestTickDuringSolvedPauseCanEnd(t *testing.T) {
	s, err := New("chem", 1, []Clue{{Prompt: "p", Answer: "aa"}}, nil)
	require.NoError(t, err)
	_, _ = s.Guess("a")
	require.Equal(t, PhaseSolved, s.Phase)

	assert.True(t, s.Tick())
	assert.Equal(t, PhaseEnded, s.Phase)
	assert.ErrorIs(t, s.Advance(), ErrInvalidState)
}

func TestShuffleIsPermutation(t *testing.T) {
	clues := []Clue{
		{Prompt: "1", Answer: "a"}, {Prompt: "2", Answer: "b"},
		{Prompt: "3", Answer: "c"}, {Prompt: "4", Answer: "d"},
	}
	orig := append([]Clue(nil), clues...)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		out := Shuffle(clues, rng)
		assert.ElementsMatch(t, orig, out)
	}
	assert.Equal(t, orig, clues, "input must not be reordered")
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{125, "2:05"},
		{59, "0:59"},
		{150, "2:30"},
		{0, "0:00"},
		{600, "10:00"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTime(tt.in), "FormatTime(%d)", tt.in)
	}
}

func TestIdleView(t *testing.T) {
	v := IdleView()
	assert.Equal(t, PhaseIdle, v.Phase)
	assert.Len(t, v.Keys, 26)
	assert.Empty(t, v.Cells)
}

func uniqueLetters(s string) []rune {
	seen := map[rune]bool{}
	var out []rune
	for _, r := range s {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
