package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewQuoteID returns QT-<unix millis>.
func NewQuoteID(now time.Time) string {
	return fmt.Sprintf("QT-%d", now.UnixMilli())
}

// NewBookingID returns BK-<unix millis>-<9 base36 chars>.
func NewBookingID(now time.Time) string {
	return fmt.Sprintf("BK-%d-%s", now.UnixMilli(), randomBase36(9))
}

// NewShareToken returns an unguessable token for public document links.
func NewShareToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func randomBase36(n int) string {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			b.WriteByte(base36Alphabet[i%len(base36Alphabet)])
			continue
		}
		b.WriteByte(base36Alphabet[idx.Int64()])
	}
	return b.String()
}

func StringPtr(s string) *string {
	return &s
}

// StringValue dereferences s, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
