package webhookutils

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeyPair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, priv
}

func sign(priv ed25519.PrivateKey, timestamp string, body []byte) string {
	return hex.EncodeToString(ed25519.Sign(priv, append([]byte(timestamp), body...)))
}

func flipBit(s []byte, i int) []byte {
	out := append([]byte(nil), s...)
	out[i/8] ^= 1 << (i % 8)
	return out
}

func TestNewVerifier_RejectsBadKeys(t *testing.T) {
	for _, key := range []string{"", "zz", hex.EncodeToString([]byte("short"))} {
		_, err := NewVerifier(key)
		assert.ErrorIs(t, err, ErrInvalidPublicKey, "key %q", key)
	}
}

func TestVerify_AcceptsValidSignature(t *testing.T) {
	pub, priv := newKeyPair(t)
	v, err := NewVerifier(hex.EncodeToString(pub))
	require.NoError(t, err)

	body := []byte(`{"type":1}`)
	ts := "1700000000"
	assert.NoError(t, v.Verify(SignedRequest{Signature: sign(priv, ts, body), Timestamp: ts, Body: body}))
}

func TestVerify_RejectsAnySingleBitFlip(t *testing.T) {
	pub, priv := newKeyPair(t)
	v, err := NewVerifier(hex.EncodeToString(pub))
	require.NoError(t, err)

	body := []byte(`{"type":2,"data":{"name":"tips"}}`)
	ts := "1700000000"
	sigRaw := ed25519.Sign(priv, append([]byte(ts), body...))

	for i := 0; i < len(body)*8; i++ {
		req := SignedRequest{Signature: hex.EncodeToString(sigRaw), Timestamp: ts, Body: flipBit(body, i)}
		assert.ErrorIs(t, v.Verify(req), ErrInvalidSignature, "body bit %d", i)
	}
	for i := 0; i < len(ts)*8; i++ {
		req := SignedRequest{Signature: hex.EncodeToString(sigRaw), Timestamp: string(flipBit([]byte(ts), i)), Body: body}
		assert.ErrorIs(t, v.Verify(req), ErrInvalidSignature, "timestamp bit %d", i)
	}
	for i := 0; i < len(sigRaw)*8; i++ {
		req := SignedRequest{Signature: hex.EncodeToString(flipBit(sigRaw, i)), Timestamp: ts, Body: body}
		assert.ErrorIs(t, v.Verify(req), ErrInvalidSignature, "signature bit %d", i)
	}
}

func TestVerify_MissingFields(t *testing.T) {
	pub, priv := newKeyPair(t)
	v, err := NewVerifier(hex.EncodeToString(pub))
	require.NoError(t, err)

	body := []byte(`{"type":1}`)
	ts := "1700000000"
	sig := sign(priv, ts, body)

	cases := map[string]SignedRequest{
		"no signature": {Timestamp: ts, Body: body},
		"no timestamp": {Signature: sig, Body: body},
		"no body":      {Signature: sig, Timestamp: ts},
	}
	for name, req := range cases {
		assert.ErrorIs(t, v.Verify(req), ErrMissingSignature, name)
	}
}

func TestVerify_WrongKey(t *testing.T) {
	_, priv := newKeyPair(t)
	otherPub, _ := newKeyPair(t)
	v, err := NewVerifier(hex.EncodeToString(otherPub))
	require.NoError(t, err)

	body := []byte(`{"type":1}`)
	assert.ErrorIs(t, v.Verify(SignedRequest{Signature: sign(priv, "1", body), Timestamp: "1", Body: body}), ErrInvalidSignature)
	assert.ErrorIs(t, v.Verify(SignedRequest{Signature: "not-hex", Timestamp: "1", Body: body}), ErrInvalidSignature)
}

func TestExtractSignedRequest(t *testing.T) {
	h := http.Header{}
	h.Set("X-Signature-Ed25519", " abcd ")
	h["x-signature-timestamp"] = []string{"1700000000"}

	req := ExtractSignedRequest(h, []byte("{}"))
	assert.Equal(t, "abcd", req.Signature)
	assert.Equal(t, "1700000000", req.Timestamp)
	assert.Equal(t, []byte("{}"), req.Body)
}
