package transfer

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NewReference builds "TXN" + base-36 unix millis + 8 hex chars of randomness.
func NewReference(now time.Time) (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("NewReference: %w", err)
	}
	return strings.ToUpper("TXN" + strconv.FormatInt(now.UnixMilli(), 36) + hex.EncodeToString(b)), nil
}
