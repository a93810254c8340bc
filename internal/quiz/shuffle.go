// apps/go-server/internal/quiz/shuffle.go
//
// Clue ordering and timer formatting helpers shared by the engine and views.
package quiz

import (
	"fmt"
	"math/rand"
	"time"
)

// Shuffle returns a uniformly permuted copy of clues (Fisher–Yates).
func Shuffle(clues []Clue, rng *rand.Rand) []Clue {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	out := make([]Clue, len(clues))
	copy(out, clues)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// FormatTime renders seconds as m:ss.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
