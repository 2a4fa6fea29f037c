package domain

import (
	"crypto/md5" //nolint:gosec // change detection, not security
	"encoding/hex"
)

// Fingerprint computes a stable digest of article text, used to decide
// whether re-ingestion is necessary. Identical input always yields the
// same digest; any content change yields a different one.
func Fingerprint(text string) string {
	sum := md5.Sum([]byte(text)) //nolint:gosec // change detection, not security
	return hex.EncodeToString(sum[:])
}
