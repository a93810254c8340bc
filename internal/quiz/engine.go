// apps/go-server/internal/quiz/engine.go
//
// Core quiz engine for a single session.
// Responsibilities:
//   - Start sessions over a shuffled copy of a subject's clues.
//   - Apply letter guesses: +10 per revealed position, -5 on a miss.
//   - Detect completion, award the solve bonus, advance cyclically.
//   - Count the timer down and end the session at zero.
//
// Notes:
//   - The engine is not safe for concurrent use; the controller package
//     serializes every event onto one session.
//   - All transitions return ErrInvalidState instead of faulting when the
//     session is not in a phase that accepts them.
package quiz

import (
	"math/rand"
	"strings"
)

// New starts a session over clues using rng for the shuffle.
// clues is copied; the caller's slice is never reordered. A nil rng uses a
// time-seeded source.
func New(subject string, durationSeconds int, clues []Clue, rng *rand.Rand) (*Session, error) {
	if durationSeconds <= 0 {
		return nil, ErrInvalidDuration
	}
	if len(clues) == 0 {
		return nil, ErrNoClues
	}
	s := &Session{
		Subject:   subject,
		Duration:  durationSeconds,
		Remaining: durationSeconds,
		Clues:     Shuffle(clues, rng),
		Phase:     PhaseActive,
	}
	s.load(0)
	return s, nil
}

// Current returns the clue being played.
func (s *Session) Current() Clue { return s.Clues[s.Index] }

// Guess reveals every position of the current answer equal to letter.
//
// Rules:
//   - Only accepted while the session is active.
//   - letter must be a single a–z character (case-insensitive).
//   - A letter already used on this clue changes nothing.
//   - k matches score +10·k; zero matches score -5.
//   - Completing the clue adds the solve bonus and moves to PhaseSolved.
func (s *Session) Guess(letter string) (GuessResult, error) {
	if s.Phase != PhaseActive {
		return GuessResult{}, ErrInvalidState
	}
	letter = strings.ToLower(strings.TrimSpace(letter))
	if len(letter) != 1 || letter[0] < 'a' || letter[0] > 'z' {
		return GuessResult{}, ErrInvalidLetter
	}
	r := rune(letter[0])
	res := GuessResult{Letter: letter}
	if s.Used[r] {
		res.Repeated = true
		return res, nil
	}
	s.Used[r] = true

	for i, c := range s.answer {
		if c == r {
			s.Mask[i] = c
			res.Matches++
		}
	}
	if res.Matches > 0 {
		res.Delta = HitPoints * res.Matches
	} else {
		res.Delta = -MissPenalty
	}

	if s.IsComplete() {
		res.Delta += SolveBonus
		res.Completed = true
		s.Solved++
		s.Phase = PhaseSolved
		s.Message = SolvedMessage
	}
	s.Score += res.Delta
	return res, nil
}

// IsComplete reports whether every position of the current answer is revealed.
func (s *Session) IsComplete() bool {
	for _, c := range s.Mask {
		if c == 0 {
			return false
		}
	}
	return true
}

// Advance loads the next clue after a solve. Only valid in PhaseSolved.
func (s *Session) Advance() error {
	if s.Phase != PhaseSolved {
		return ErrInvalidState
	}
	s.Phase = PhaseActive
	s.Message = ""
	s.next()
	return nil
}

// Skip moves to the next clue without touching the score.
func (s *Session) Skip() error {
	if s.Phase != PhaseActive {
		return ErrInvalidState
	}
	s.Skipped++
	s.next()
	return nil
}

// Tick consumes one second. It reports true exactly once: on the tick that
// takes Remaining to zero and ends the session.
func (s *Session) Tick() bool {
	if s.Phase != PhaseActive && s.Phase != PhaseSolved {
		return false
	}
	if s.Remaining > 0 {
		s.Remaining--
	}
	if s.Remaining > 0 {
		return false
	}
	s.Phase = PhaseEnded
	s.Message = TimeUpMessage
	return true
}

// View derives the display state.
func (s *Session) View() View {
	v := View{
		Subject:          s.Subject,
		Duration:         s.Duration,
		Phase:            s.Phase,
		Prompt:           s.Current().Prompt,
		Cells:            make([]string, len(s.Mask)),
		UsedLetters:      []string{},
		Keys:             make([]Key, 0, len(Alphabet)),
		Remaining:        s.Remaining,
		Time:             FormatTime(s.Remaining),
		Score:            s.Score,
		Solved:           s.Solved,
		Skipped:          s.Skipped,
		Message:          s.Message,
		MessageTransient: s.Phase == PhaseSolved,
	}
	for i, c := range s.Mask {
		if c != 0 {
			v.Cells[i] = string(c)
		}
	}
	for _, r := range Alphabet {
		used := s.Used[r]
		v.Keys = append(v.Keys, Key{Letter: string(r), Used: used})
		if used {
			v.UsedLetters = append(v.UsedLetters, string(r))
		}
	}
	return v
}

// IdleView is the display state when no session exists.
func IdleView() View {
	v := View{
		Phase:       PhaseIdle,
		Cells:       []string{},
		UsedLetters: []string{},
		Keys:        make([]Key, 0, len(Alphabet)),
		Time:        FormatTime(0),
	}
	for _, r := range Alphabet {
		v.Keys = append(v.Keys, Key{Letter: string(r)})
	}
	return v
}

func (s *Session) next() {
	s.load((s.Index + 1) % len(s.Clues))
}

// load resets the mask and keyboard for the clue at i.
func (s *Session) load(i int) {
	s.Index = i
	s.answer = []rune(s.Clues[i].Answer)
	s.Mask = make([]rune, len(s.answer))
	s.Used = make(map[rune]bool, len(Alphabet))
}
