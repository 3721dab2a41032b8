package polar

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// VerifyWebhookSignature checks a Polar delivery against the standard-webhooks
// scheme: the webhook-signature header carries space-separated
// "v1,<base64 HMAC-SHA256>" tokens and the signed string is
// "{webhook-id}.{webhook-timestamp}.{body}". Any matching v1 token accepts
// the delivery.
func VerifyWebhookSignature(payload []byte, webhookID, timestamp, signatureHeader, secret string) bool {
	id := strings.TrimSpace(webhookID)
	ts := strings.TrimSpace(timestamp)
	sig := strings.TrimSpace(signatureHeader)
	if id == "" || ts == "" || sig == "" || strings.TrimSpace(secret) == "" {
		return false
	}

	var candidates [][]byte
	for _, part := range strings.Fields(sig) {
		version, value, found := strings.Cut(part, ",")
		if !found || version != "v1" || value == "" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			continue
		}
		candidates = append(candidates, decoded)
	}
	if len(candidates) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(id))
	mac.Write([]byte("."))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		if hmac.Equal(expected, candidate) {
			return true
		}
	}
	return false
}
