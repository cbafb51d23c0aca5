package execution

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"earlybot/pkg/exchange"
)

// BuildClientOrderID derives a deterministic client order id from the order
// identity and the minute bucket of the decision time. Retries inside the
// same minute reuse the id, so the venue can deduplicate double submissions.
func BuildClientOrderID(symbol string, side exchange.Side, at time.Time) string {
	bucket := at.UTC().Truncate(time.Minute).Unix()
	seed := fmt.Sprintf("%s|%s|%d", strings.ToLower(strings.TrimSpace(symbol)), side, bucket)
	sum := sha256.Sum256([]byte(seed))
	return "0x" + hex.EncodeToString(sum[:16])
}
