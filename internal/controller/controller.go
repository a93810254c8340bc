// apps/go-server/internal/controller/controller.go
//
// Session controller: owns one quiz.Session and everything time-driven
// around it.
// Responsibilities:
//   - Start / replay / exit sessions against a clue source.
//   - Serialize guesses, skips, countdown ticks and the delayed
//     post-solve advance behind one mutex.
//   - Run exactly one countdown per session and at most one pending
//     advance timer; cancel both on end, exit or replay.
//   - Fan out display states to subscribers (WebSocket clients).
//   - Report finished sessions through Options.OnEnd.
//
// Notes:
//   - Every session start gets a fresh run ID and generation counter;
//     callbacks from a previous run see a stale generation and do nothing.
//   - Subscriber sends are non-blocking; a slow reader drops frames.

package controller

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/stemquiz/apps/go-server/internal/countdown"
	"github.com/robalobadob/stemquiz/apps/go-server/internal/quiz"
)

var (
	ErrUnknownSubject = errors.New("unknown_subject")
	ErrNoSession      = errors.New("no_session")
)

// Source supplies clues per subject. *catalog.Catalog satisfies it.
type Source interface {
	Has(subject string) bool
	Clues(subject string) []quiz.Clue
}

// Player identifies who is playing. Guests have an anonymous ID and no name.
type Player struct {
	ID   string
	Name string
}

// Summary describes a session that ran out of time.
type Summary struct {
	SessionID  string
	RunID      string
	Player     Player
	Subject    string
	Duration   int
	Score      int
	Solved     int
	Skipped    int
	FinishedAt time.Time
}

// Options tunes timing and hooks. Zero values pick the defaults.
type Options struct {
	TickInterval time.Duration // default 1s
	AdvanceDelay time.Duration // default 2s
	Durations    []int         // allowed durations in seconds; empty allows any positive
	NewRand      func() *rand.Rand
	OnEnd        func(Summary)
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.AdvanceDelay <= 0 {
		o.AdvanceDelay = 2 * time.Second
	}
	if o.NewRand == nil {
		o.NewRand = func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) }
	}
	return o
}

// Controller drives a single player's quiz.
type Controller struct {
	id     string
	player Player
	src    Source
	opts   Options

	mu       sync.Mutex
	sess     *quiz.Session
	runID    string
	gen      uint64
	cd       *countdown.Countdown
	advance  *time.Timer
	subs     map[chan quiz.View]struct{}
	lastSeen time.Time
	closed   bool
}

// New returns an idle controller.
func New(src Source, player Player, opts Options) *Controller {
	return &Controller{
		id:       uuid.NewString(),
		player:   player,
		src:      src,
		opts:     opts.withDefaults(),
		subs:     make(map[chan quiz.View]struct{}),
		lastSeen: time.Now(),
	}
}

// ID is the controller's session identifier.
func (c *Controller) ID() string { return c.id }

// Player returns who owns this controller.
func (c *Controller) Player() Player { return c.player }

// LastActive reports the time of the last player event.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// Start begins a new session, discarding any previous one.
func (c *Controller) Start(subject string, durationSeconds int) (quiz.View, error) {
	if !c.src.Has(subject) {
		return quiz.View{}, ErrUnknownSubject
	}
	if durationSeconds <= 0 || (len(c.opts.Durations) > 0 && !slices.Contains(c.opts.Durations, durationSeconds)) {
		return quiz.View{}, quiz.ErrInvalidDuration
	}
	sess, err := quiz.New(subject, durationSeconds, c.src.Clues(subject), c.opts.NewRand())
	if err != nil {
		return quiz.View{}, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return quiz.View{}, ErrNoSession
	}
	old := c.detachLocked()
	c.sess = sess
	c.runID = uuid.NewString()
	gen := c.gen
	c.cd = countdown.Start(context.Background(), c.opts.TickInterval, func() bool { return c.tick(gen) })
	c.lastSeen = time.Now()
	v := c.viewLocked()
	c.broadcastLocked(v)
	c.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	log.Debug().Str("session", c.id).Str("subject", subject).Int("duration", durationSeconds).Msg("quiz started")
	return v, nil
}

// Replay restarts with the previous subject and duration.
func (c *Controller) Replay() (quiz.View, error) {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return quiz.View{}, ErrNoSession
	}
	return c.Start(sess.Subject, sess.Duration)
}

// Guess applies a letter to the current clue. Completing the clue schedules
// the advance to the next one after Options.AdvanceDelay.
func (c *Controller) Guess(letter string) (quiz.GuessResult, quiz.View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return quiz.GuessResult{}, c.viewLocked(), quiz.ErrInvalidState
	}
	c.lastSeen = time.Now()
	res, err := c.sess.Guess(letter)
	if err != nil {
		return res, c.viewLocked(), err
	}
	if res.Completed {
		gen := c.gen
		c.advance = time.AfterFunc(c.opts.AdvanceDelay, func() { c.advanceAfterSolve(gen) })
	}
	v := c.viewLocked()
	if !res.Repeated {
		c.broadcastLocked(v)
	}
	return res, v, nil
}

// Skip moves to the next clue. No score change.
func (c *Controller) Skip() (quiz.View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return c.viewLocked(), quiz.ErrInvalidState
	}
	c.lastSeen = time.Now()
	if err := c.sess.Skip(); err != nil {
		return c.viewLocked(), err
	}
	v := c.viewLocked()
	c.broadcastLocked(v)
	return v, nil
}

// Exit discards the session and returns to the idle state.
func (c *Controller) Exit() quiz.View {
	c.mu.Lock()
	old := c.detachLocked()
	c.sess = nil
	c.lastSeen = time.Now()
	v := c.viewLocked()
	c.broadcastLocked(v)
	c.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	return v
}

// View returns the current display state.
func (c *Controller) View() quiz.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Subscribe returns a channel of display states and a cancel func.
// The channel is closed by cancel or by Close.
func (c *Controller) Subscribe() (<-chan quiz.View, func()) {
	ch := make(chan quiz.View, 8)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subs[ch]; ok {
				delete(c.subs, ch)
				close(ch)
			}
		})
	}
}

// Close exits the session and disconnects every subscriber. The controller
// cannot be restarted afterwards.
func (c *Controller) Close() {
	c.Exit()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for ch := range c.subs {
		delete(c.subs, ch)
		close(ch)
	}
}

// tick runs on the countdown goroutine.
func (c *Controller) tick(gen uint64) bool {
	c.mu.Lock()
	if gen != c.gen || c.sess == nil {
		c.mu.Unlock()
		return false
	}
	ended := c.sess.Tick()
	if ended && c.advance != nil {
		c.advance.Stop()
		c.advance = nil
	}
	v := c.viewLocked()
	c.broadcastLocked(v)
	var sum Summary
	if ended {
		sum = c.summaryLocked()
	}
	c.mu.Unlock()

	if ended {
		log.Info().Str("session", c.id).Str("subject", sum.Subject).Int("score", sum.Score).Msg("quiz ended")
		if c.opts.OnEnd != nil {
			c.opts.OnEnd(sum)
		}
	}
	return !ended
}

func (c *Controller) advanceAfterSolve(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.sess == nil {
		return
	}
	c.advance = nil
	if err := c.sess.Advance(); err != nil {
		return
	}
	c.broadcastLocked(c.viewLocked())
}

// detachLocked invalidates the running session's callbacks and returns its
// countdown so the caller can wait for it after releasing c.mu.
func (c *Controller) detachLocked() *countdown.Countdown {
	c.gen++
	if c.advance != nil {
		c.advance.Stop()
		c.advance = nil
	}
	old := c.cd
	c.cd = nil
	if old != nil {
		old.Cancel()
	}
	return old
}

func (c *Controller) viewLocked() quiz.View {
	var v quiz.View
	if c.sess == nil {
		v = quiz.IdleView()
	} else {
		v = c.sess.View()
	}
	v.ID = c.id
	return v
}

func (c *Controller) summaryLocked() Summary {
	return Summary{
		SessionID:  c.id,
		RunID:      c.runID,
		Player:     c.player,
		Subject:    c.sess.Subject,
		Duration:   c.sess.Duration,
		Score:      c.sess.Score,
		Solved:     c.sess.Solved,
		Skipped:    c.sess.Skipped,
		FinishedAt: time.Now().UTC(),
	}
}

func (c *Controller) broadcastLocked(v quiz.View) {
	for ch := range c.subs {
		select {
		case ch <- v:
		default:
		}
	}
}
