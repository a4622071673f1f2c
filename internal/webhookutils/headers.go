package webhookutils

import (
	"net/http"
	"strings"
)

const (
	SignatureHeader = "X-Signature-Ed25519"
	TimestampHeader = "X-Signature-Timestamp"
)

// SignedRequest is the raw material the signature gate needs.
type SignedRequest struct {
	Signature string
	Timestamp string
	Body      []byte
}

// ExtractSignedRequest pulls the detached signature and timestamp headers
// for body. Lookup falls back to a case-insensitive scan for header maps
// built without canonical keys.
func ExtractSignedRequest(h http.Header, body []byte) SignedRequest {
	return SignedRequest{
		Signature: strings.TrimSpace(headerValue(h, SignatureHeader)),
		Timestamp: strings.TrimSpace(headerValue(h, TimestampHeader)),
		Body:      body,
	}
}

func headerValue(h http.Header, key string) string {
	if v := h.Get(key); v != "" {
		return v
	}
	keyLower := strings.ToLower(key)
	for k, vs := range h {
		if strings.ToLower(k) == keyLower && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}
