package commitment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWinternitzSignVerifyRoundTrip(t *testing.T) {
	message := []byte{0xde, 0xad, 0xbe, 0xef}

	secret, err := GenerateSecret(len(message))
	require.NoError(t, err)

	pub := DerivePublic(secret)

	sig, err := Sign(secret, message)
	require.NoError(t, err)

	require.True(t, Verify(pub, message, sig))
}

func TestWinternitzVerifyRejectsTamperedMessage(t *testing.T) {
	message := []byte{0x01, 0x02, 0x03, 0x04}
	other := []byte{0x01, 0x02, 0x03, 0x05}

	secret, err := GenerateSecret(len(message))
	require.NoError(t, err)
	pub := DerivePublic(secret)

	sig, err := Sign(secret, message)
	require.NoError(t, err)

	require.False(t, Verify(pub, other, sig), "signature over message must not verify a different message")
}

func TestWinternitzVerifyRejectsTamperedSignature(t *testing.T) {
	message := []byte{0xaa, 0xbb}

	secret, err := GenerateSecret(len(message))
	require.NoError(t, err)
	pub := DerivePublic(secret)

	sig, err := Sign(secret, message)
	require.NoError(t, err)

	// Flipping one revealed chain value forward by one hash must break
	// verification: the digit it now encodes no longer reaches the
	// committed public chain tip in the remaining number of steps.
	sig[0] = hashChain(sig[0], 1)

	require.False(t, Verify(pub, message, sig))
}

func TestSignRejectsWrongLengthSecret(t *testing.T) {
	secret, err := GenerateSecret(4)
	require.NoError(t, err)

	_, err = Sign(secret, []byte{0x01, 0x02})
	require.Error(t, err, "signing with a secret sized for a different message length must fail")
}

func TestGenerateSecretIsNotConstant(t *testing.T) {
	message := []byte{0x01, 0x02, 0x03, 0x04}

	s1, err := GenerateSecret(len(message))
	require.NoError(t, err)
	s2, err := GenerateSecret(len(message))
	require.NoError(t, err)

	require.NotEqual(t, s1, s2, "two independently generated secrets must not coincide")
	require.NotEqual(t, DerivePublic(s1), DerivePublic(s2))
}
