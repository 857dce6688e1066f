// Package fingerprint computes content digests for notes, annotations and
// annotated ranges so that catalog entries can be compared across runs.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/odfnote/core/xml"
)

// HashResult contains both SHA-256 and BLAKE3 hashes of one input.
type HashResult struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
}

// Sum hashes data with both algorithms.
func Sum(data []byte) HashResult {
	s := sha256.Sum256(data)
	b := blake3.Sum256(data)
	return HashResult{
		SHA256: hex.EncodeToString(s[:]),
		BLAKE3: hex.EncodeToString(b[:]),
	}
}

// Text returns the BLAKE3 hex digest of s.
func Text(s string) string {
	b := blake3.Sum256([]byte(s))
	return hex.EncodeToString(b[:])
}

// Nodes returns the BLAKE3 hex digest of the serialized nodes, in order.
// Nil nodes are skipped.
func Nodes(nodes ...*xml.Node) string {
	h := blake3.New()
	for _, n := range nodes {
		if n == nil {
			continue
		}
		h.WriteString(n.OuterXML())
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Short abbreviates a hex digest for display.
func Short(digest string) string {
	if len(digest) <= 12 {
		return digest
	}
	return digest[:12]
}
