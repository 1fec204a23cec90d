package verification

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HashToken returns a fixed-size digest of a bearer token for use in cache keys.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ConversationID returns yymm followed by 16 hex characters of a random UUID.
func ConversationID(now time.Time) string {
	hexID := strings.ReplaceAll(uuid.NewString(), "-", "")
	return now.Format("0601") + hexID[:16]
}
