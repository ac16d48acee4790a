package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/dzieciakowo/ingest/internal/normalizer"
)

// Fingerprint derives the natural cross-run identity of an event from its
// title, start timestamp and venue. Identical triples always hash to the same
// value; two records sharing a fingerprint are the same real-world event no
// matter how the other fields drift between runs.
func Fingerprint(title string, startsAt time.Time, venue string) string {
	composite := fmt.Sprintf("%s|%s|%s",
		strings.ToLower(normalizer.NormalizeText(title)),
		startsAt.UTC().Format(time.RFC3339),
		strings.ToLower(normalizer.NormalizeText(venue)),
	)
	sum := sha256.Sum256([]byte(composite))
	return hex.EncodeToString(sum[:])
}
