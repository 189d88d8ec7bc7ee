package approval

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/arangogutierrez/toolfirewall/pkg/policy"
)

// ComputeID derives the deterministic approval ID (spec.md §4.5):
// sha256_hex(toolName + ":" + (sessionKey||"") + ":" + paramsHash + ":" + risk)[:16].
// Same inputs always produce the same ID, across runs and processes
// (spec.md §8 "Approval ID stability"), which is what makes restart-safe
// approval matching possible without storing a generated UUID.
func ComputeID(toolName, sessionKey, paramsHash string, risk policy.Risk) string {
	sum := sha256.Sum256([]byte(toolName + ":" + sessionKey + ":" + paramsHash + ":" + string(risk)))
	return hex.EncodeToString(sum[:])[:16]
}
