// Package contexts holds the per-role execution contexts the graph's
// pre-sign and action operations are called with: the operator, who
// holds the Winternitz secrets and signs unilateral actions, and each
// verifier, who holds only its own MuSig2 signing key (design §4.4,
// §4.6).
package contexts

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"

	"github.com/pegbridge/peg-out-graph/commitment"
)

// VerifierContext is the material one n-of-n signer needs to take part
// in the two-round MuSig2 protocol: its own key pair. The graph never
// holds more than the public key; the private key stays with the
// verifier.
type VerifierContext struct {
	PrivateKey *btcec.PrivateKey
}

func (c VerifierContext) PublicKey() *btcec.PublicKey { return c.PrivateKey.PubKey() }

// OperatorContext is the material the graph owner needs to run
// operator-signed actions: the operator's signing key, the Winternitz
// secrets it alone holds, and the payout address reclaimed value is
// swept to.
type OperatorContext struct {
	PrivateKey *btcec.PrivateKey
	Secrets    commitment.SecretSet
	Payout     btcutil.Address

	// used tracks which commitment message ids have already been
	// revealed, enforcing the single-use-secret contract (§5
	// shared-resource policy): reusing a Winternitz secret across two
	// messages leaks it, so the executor must refuse a second reveal.
	used map[string]bool
}

func (c OperatorContext) PublicKey() *btcec.PublicKey { return c.PrivateKey.PubKey() }

// MarkRevealed records that id's secret has now been used to sign a
// witness. Returns false if it was already marked, which the caller
// must treat as a Cryptographic error (secret reuse attempted).
func (c *OperatorContext) MarkRevealed(id commitment.MessageId) bool {
	if c.used == nil {
		c.used = make(map[string]bool)
	}
	key := id.String()
	if c.used[key] {
		return false
	}
	c.used[key] = true
	return true
}
