// apps/go-server/internal/quiz/types.go
//
// Core type definitions for the quiz engine.
// Defines:
//   - Clue:  a prompt and the lowercase term the player must uncover.
//   - Phase: coarse lifecycle of a session (idle/active/solved/ended).
//   - Session: state for one play-through, from start to timeout.
//   - View:  the derived display state handed to clients.

package quiz

import "errors"

// Scoring and timing rules.
const (
	HitPoints      = 10  // per revealed position
	MissPenalty    = 5   // flat, regardless of answer length
	SolveBonus     = 150 // once per completed clue
	Alphabet       = "abcdefghijklmnopqrstuvwxyz"
	SolvedMessage  = "Congratulations! You found the term!"
	TimeUpMessage  = "Time's up! Play Again?"
	DefaultSeconds = 150
)

var (
	ErrInvalidState    = errors.New("invalid_state")
	ErrInvalidLetter   = errors.New("invalid_letter")
	ErrInvalidDuration = errors.New("invalid_duration")
	ErrNoClues         = errors.New("no_clues")
)

// Clue is an immutable prompt/answer pair from the catalog.
type Clue struct {
	Prompt string `json:"prompt" yaml:"prompt"`
	Answer string `json:"answer" yaml:"answer"`
}

// Phase is the session lifecycle state.
//   - "idle":   no session; subject and time still being selected.
//   - "active": accepting guesses and skips.
//   - "solved": current clue complete, waiting for the auto-advance.
//   - "ended":  timer expired; only replay or exit are meaningful.
type Phase string

const (
	PhaseIdle   Phase = "idle"
	PhaseActive Phase = "active"
	PhaseSolved Phase = "solved"
	PhaseEnded  Phase = "ended"
)

// Session holds the state of a single quiz play-through.
type Session struct {
	Subject   string // catalog subject the clues came from
	Duration  int    // selected time limit in seconds
	Remaining int    // seconds left; never below 0
	Clues     []Clue // shuffled order, cycled once exhausted
	Index     int    // position in Clues
	Mask      []rune // revealed characters of the current answer; 0 = hidden
	Score     int    // no floor
	Used      map[rune]bool
	Phase     Phase
	Message   string
	Solved    int // clues completed this session
	Skipped   int

	answer []rune // current answer, split once per clue
}

// GuessResult reports what a single letter guess did.
type GuessResult struct {
	Letter    string `json:"letter"`
	Matches   int    `json:"matches"`
	Delta     int    `json:"delta"`
	Repeated  bool   `json:"repeated"`
	Completed bool   `json:"completed"`
}

// Key is a keyboard key and whether it has been used on the current clue.
type Key struct {
	Letter string `json:"letter"`
	Used   bool   `json:"used"`
}

// View is the display state derived from a Session.
type View struct {
	ID               string   `json:"id,omitempty"`
	Subject          string   `json:"subject,omitempty"`
	Duration         int      `json:"duration,omitempty"`
	Phase            Phase    `json:"phase"`
	Prompt           string   `json:"prompt,omitempty"`
	Cells            []string `json:"cells"`
	UsedLetters      []string `json:"usedLetters"`
	Keys             []Key    `json:"keys"`
	Remaining        int      `json:"remaining"`
	Time             string   `json:"time"`
	Score            int      `json:"score"`
	Solved           int      `json:"solved"`
	Skipped          int      `json:"skipped"`
	Message          string   `json:"message,omitempty"`
	MessageTransient bool     `json:"messageTransient"`
}
