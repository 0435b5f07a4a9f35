// Package harness drives a running webhook endpoint through signed gateway
// scenarios. It signs payloads on its own rather than importing the server's
// verifier, so a drift in either side shows up as a failed scenario.
package harness

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Metadata mirrors the optional gateway metadata block.
type Metadata struct {
	ItemID   string `json:"itemId,omitempty"`
	BuyerID  string `json:"buyerId,omitempty"`
	SellerID string `json:"sellerId,omitempty"`
}

// Payload is the body the gateway posts.
type Payload struct {
	PaymentID string    `json:"paymentId"`
	OrderID   string    `json:"orderId"`
	Status    string    `json:"status"`
	Amount    float64   `json:"amount"`
	Timestamp string    `json:"timestamp"`
	Signature string    `json:"signature"`
	Metadata  *Metadata `json:"metadata,omitempty"`
}

// CanonicalString joins the signed fields with "|". Amounts use the shortest
// decimal form, so 100.0 signs as "100".
func CanonicalString(p Payload) string {
	return strings.Join([]string{
		p.PaymentID,
		p.OrderID,
		p.Status,
		strconv.FormatFloat(p.Amount, 'f', -1, 64),
		p.Timestamp,
	}, "|")
}

// ComputeSignature returns the lowercase hex HMAC-SHA256 of the canonical string.
func ComputeSignature(p Payload, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(CanonicalString(p)))
	return hex.EncodeToString(h.Sum(nil))
}

// Sign fills in the signature and returns the payload.
func Sign(p Payload, secret string) Payload {
	p.Signature = ComputeSignature(p, secret)
	return p
}
