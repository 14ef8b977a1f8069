package commitment

import (
	"crypto/rand"
	"fmt"

	"github.com/kkdai/bstream"
	"lukechampine.com/blake3"
)

// chainLength is the number of positions in each digit's hash chain, so a
// chain top lies chainLength-1 hash steps above its secret (base-16
// Winternitz: each digit encodes one nibble, 0..15).
const chainLength = 16

const seedSize = 32

// Secret is a Winternitz one-time-signature secret: one 32-byte chain seed
// per digit, including checksum digits. It must be used to sign at most
// one message; the action executor is responsible for rejecting reuse
// (design §5 "shared-resource policy").
type Secret [][seedSize]byte

// PublicKey is the corresponding public commitment: each digit's seed
// hashed to the top of its chain.
type PublicKey [][seedSize]byte

// Signature reveals each digit's seed hashed only as many times as the
// digit's value, letting a verifier hash the remainder to reach the
// public key.
type Signature [][seedSize]byte

// digitCount returns the number of value digits plus checksum digits
// needed to commit to a message of the given byte length.
func digitCount(messageLen int) (valueDigits, checksumDigits int) {
	valueDigits = messageLen * 2

	maxChecksum := valueDigits * (chainLength - 1)
	checksumDigits = 1
	for c := chainLength; c <= maxChecksum; c *= chainLength {
		checksumDigits++
	}
	return valueDigits, checksumDigits
}

// GenerateSecret draws a fresh Winternitz secret sized for a message of
// messageLen bytes. Secrets must never be reused across signing
// opportunities (§3 invariants, §5 shared-resource policy).
func GenerateSecret(messageLen int) (Secret, error) {
	valueDigits, checksumDigits := digitCount(messageLen)
	secret := make(Secret, valueDigits+checksumDigits)

	for i := range secret {
		if _, err := rand.Read(secret[i][:]); err != nil {
			return nil, fmt.Errorf("generating winternitz seed: %w", err)
		}
	}
	return secret, nil
}

func hashChain(seed [seedSize]byte, steps int) [seedSize]byte {
	cur := seed
	for i := 0; i < steps; i++ {
		cur = blake3.Sum256(cur[:])
	}
	return cur
}

// DerivePublic computes the public commitment for secret: every digit
// seed hashed to the top of its chain.
func DerivePublic(secret Secret) PublicKey {
	pub := make(PublicKey, len(secret))
	for i, seed := range secret {
		pub[i] = hashChain(seed, chainLength-1)
	}
	return pub
}

// digitsOf splits message into base-16 digits (two per byte, most
// significant nibble first) followed by the checksum digits required to
// prevent a forger from only ever decreasing digit values.
func digitsOf(message []byte, valueDigits, checksumDigits int) ([]int, error) {
	br := bstream.NewBStreamReader(message)

	digits := make([]int, 0, valueDigits+checksumDigits)
	for i := 0; i < valueDigits; i++ {
		v, err := br.ReadBits(4)
		if err != nil {
			return nil, fmt.Errorf("reading message nibble %d: %w", i, err)
		}
		digits = append(digits, int(v))
	}

	checksum := 0
	for _, d := range digits {
		checksum += (chainLength - 1) - d
	}

	checksumDigitsValues := make([]int, checksumDigits)
	for i := checksumDigits - 1; i >= 0; i-- {
		checksumDigitsValues[i] = checksum % chainLength
		checksum /= chainLength
	}
	digits = append(digits, checksumDigitsValues...)

	return digits, nil
}

// Sign reveals secret's digit seeds hashed exactly up to each digit's
// value within message, producing a one-time signature. message must be
// exactly the byte length the secret was generated for.
func Sign(secret Secret, message []byte) (Signature, error) {
	wantValueDigits, wantChecksumDigits := digitCount(len(message))
	if len(secret) != wantValueDigits+wantChecksumDigits {
		return nil, fmt.Errorf(
			"secret sized for a different message length: have %d digits, want %d",
			len(secret), wantValueDigits+wantChecksumDigits)
	}

	digits, err := digitsOf(message, wantValueDigits, wantChecksumDigits)
	if err != nil {
		return nil, err
	}

	sig := make(Signature, len(secret))
	for i, d := range digits {
		sig[i] = hashChain(secret[i], d)
	}
	return sig, nil
}

// Verify checks that sig is a valid one-time signature over message under
// pub.
func Verify(pub PublicKey, message []byte, sig Signature) bool {
	wantValueDigits, wantChecksumDigits := digitCount(len(message))
	if len(pub) != wantValueDigits+wantChecksumDigits || len(sig) != len(pub) {
		return false
	}

	digits, err := digitsOf(message, wantValueDigits, wantChecksumDigits)
	if err != nil {
		return false
	}

	for i, d := range digits {
		recomputed := hashChain(sig[i], (chainLength-1)-d)
		if recomputed != pub[i] {
			return false
		}
	}
	return true
}
