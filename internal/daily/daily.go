// Package daily derives the "daily" clue order: every player who starts a
// daily quiz for a subject on the same UTC date gets the same shuffle.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns a deterministic shuffle seed from HMAC(salt, date|subject).
func Seed(date time.Time, salt, subject string) int64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	h.Write([]byte{'|'})
	h.Write([]byte(subject))
	sum := h.Sum(nil)
	// first 8 bytes; the sign bit is irrelevant to rand.NewSource
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// Rand returns a generator producing the daily order for subject on date.
func Rand(date time.Time, salt, subject string) *rand.Rand {
	return rand.New(rand.NewSource(Seed(date, salt, subject)))
}
