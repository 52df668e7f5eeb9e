package sourceir

import (
	"crypto/sha256"
	"encoding/hex"
)

// DigestDomain versions the digest scheme. Bumping it invalidates every
// existing lock on purpose: a digest from one scheme must never verify
// against another.
const DigestDomain = "sculpt/source-ir/v1"

// Digest computes the content digest freeze stores and replay verifies.
// SHA-256 over the canonical encoding with domain separation, returned as
// lowercase hex.
func (m *Module) Digest() (string, error) {
	canonical, err := m.MarshalCanonical()
	if err != nil {
		return "", err
	}
	return hashWithDomain(DigestDomain, canonical), nil
}

// hashWithDomain computes SHA256(domain + 0x00 + data). The null separator
// keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
