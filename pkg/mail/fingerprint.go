package mail

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint returns a stable hex-encoded SHA-256 hash over the normalized
// request content. Two requests with identical content always hash
// identically: encoding/json emits struct fields in declaration order and
// map keys sorted, which is normalization enough for this model.
func Fingerprint(r Request) string {
	return hashJSON(r)
}

// BatchFingerprint hashes a whole batch, preserving element order so that
// reordered batches fingerprint differently.
func BatchFingerprint(b Batch) string {
	return hashJSON(b)
}

func hashJSON(v any) string {
	// Marshal of the model types cannot fail: every field is a plain
	// string, slice, map or time value.
	raw, _ := json.Marshal(v)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
