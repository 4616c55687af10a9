package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignRoundTrip(t *testing.T) {
	secret := "test_secret"
	sig := Sign(secret, "order_123", "pay_456")
	require.NotEmpty(t, sig)
	assert.Len(t, sig, 64) // hex sha256

	assert.True(t, VerifySignature(secret, "order_123", "pay_456", sig))
}

func TestVerifySignatureRejectsTamper(t *testing.T) {
	secret := "test_secret"
	sig := Sign(secret, "order_123", "pay_456")

	// Any single altered input invalidates the signature.
	assert.False(t, VerifySignature(secret, "order_999", "pay_456", sig))
	assert.False(t, VerifySignature(secret, "order_123", "pay_999", sig))
	assert.False(t, VerifySignature("other_secret", "order_123", "pay_456", sig))

	// Flipping one hex digit invalidates it too.
	flipped := []byte(sig)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}
	assert.False(t, VerifySignature(secret, "order_123", "pay_456", string(flipped)))
}

func TestVerifySignatureRejectsEmpty(t *testing.T) {
	assert.False(t, VerifySignature("", "order_123", "pay_456", Sign("", "order_123", "pay_456")))
	assert.False(t, VerifySignature("secret", "order_123", "pay_456", ""))
}
