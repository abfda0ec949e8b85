package oracle

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Prover signs and verifies disclosure proofs: hex(HMAC-SHA256(secret, "requestId|quantity|amount")).
type Prover struct {
	secret []byte
}

func NewProver(secret string) *Prover {
	return &Prover{secret: []byte(strings.TrimSpace(secret))}
}

func proofMessage(requestID string, quantity, amount int64) []byte {
	var b strings.Builder
	b.WriteString(requestID)
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(quantity, 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(amount, 10))
	return []byte(b.String())
}

func (p *Prover) Sign(requestID string, quantity, amount int64) string {
	mac := hmac.New(sha256.New, p.secret)
	_, _ = mac.Write(proofMessage(requestID, quantity, amount))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether proof matches. An unconfigured secret never verifies.
func (p *Prover) Verify(requestID string, quantity, amount int64, proof string) bool {
	if p == nil || len(p.secret) == 0 {
		return false
	}
	provided, err := hex.DecodeString(strings.TrimSpace(proof))
	if err != nil || len(provided) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, p.secret)
	_, _ = mac.Write(proofMessage(requestID, quantity, amount))
	return hmac.Equal(mac.Sum(nil), provided)
}
