package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the HMAC of the raw webhook body.
const SignatureHeader = "x-paystack-signature"

// VerifySignature checks a webhook signature: hex(HMAC-SHA512(secret, payload)).
func VerifySignature(secret string, payload []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	if secret == "" || len(payload) == 0 || signature == "" {
		return false
	}
	provided, err := hex.DecodeString(strings.ToLower(signature))
	if err != nil {
		return false
	}
	return hmac.Equal(provided, computeSignature(secret, payload))
}

// Sign returns the hex signature the gateway would send for payload.
func Sign(secret string, payload []byte) string {
	return hex.EncodeToString(computeSignature(secret, payload))
}

func computeSignature(secret string, payload []byte) []byte {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return mac.Sum(nil)
}
