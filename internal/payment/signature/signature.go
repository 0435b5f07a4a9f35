// Package signature implements the gateway webhook MAC.
//
// The canonical string is paymentId|orderId|status|amount|timestamp, where
// amount is the shortest decimal form of the number (189.75, 1, 100). Field
// order and the delimiter are part of the wire contract with the gateway.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/smallbiznis/campusswap/internal/payment/domain"
)

const delimiter = "|"

// CanonicalString joins the signed fields in wire order.
func CanonicalString(f domain.SignedFields) string {
	return strings.Join([]string{
		f.PaymentID,
		f.OrderID,
		f.Status,
		f.Amount.String(),
		f.Timestamp,
	}, delimiter)
}

// Sign returns the lowercase hex HMAC-SHA256 of the canonical string.
func Sign(f domain.SignedFields, secret string) string {
	return hex.EncodeToString(mac(f, secret))
}

// Verify reports whether signature is the MAC of f under secret. Malformed
// or wrong-length signatures are rejected, never panicked on.
func Verify(f domain.SignedFields, signature, secret string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	provided, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	return hmac.Equal(mac(f, secret), provided)
}

func mac(f domain.SignedFields, secret string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write([]byte(CanonicalString(f)))
	return h.Sum(nil)
}

// Verifier holds the shared secret injected at construction.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

func (v *Verifier) Verify(f domain.SignedFields, signature string) bool {
	if v == nil {
		return false
	}
	return Verify(f, signature, v.secret)
}

func (v *Verifier) Sign(f domain.SignedFields) string {
	return Sign(f, v.secret)
}
